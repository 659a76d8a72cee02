package payment

import (
	"errors"

	"hakedis-backend/internal/models"
	"hakedis-backend/internal/settlement"

	"gorm.io/gorm"
)

// Recalculate - dönemin türetilmiş tutarlarını mevcut metraj satırlarından
// sıfırdan hesaplayıp yazar. Artımlı güncelleme yok: satır ekleme/silme/
// düzenleme her seferinde dönemin tamamını yeniden hesaplatır, böylece
// saklanan toplamlar satırlardan kopamaz. Sadece draft dönem hesaplanır;
// draft'tan çıkan dönemin tutarları sonraki dönemler için donmuş girdidir.
func Recalculate(db *gorm.DB, paymentID uint) (*models.ProgressPayment, error) {
	var result models.ProgressPayment

	err := db.Transaction(func(tx *gorm.DB) error {
		var p models.ProgressPayment
		if err := tx.First(&p, paymentID).Error; err != nil {
			return err
		}

		if err := RecalculateTx(tx, &p); err != nil {
			return err
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RecalculateTx - satır mutasyonlarıyla aynı transaction'da çalışan çekirdek.
// Hesap ya tamamen yazılır ya hiç yazılmaz.
func RecalculateTx(tx *gorm.DB, p *models.ProgressPayment) error {
	if p.Status != models.PaymentDraft {
		return ErrPeriodNotDraft
	}

	var cfg models.PaymentConfig
	if err := tx.Where("project_id = ?", p.ProjectID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Kurulu bir projede ayar kaydının olmaması sıfır oranla devam
			// edilecek bir durum değil, hard error
			return ErrConfigMissing
		}
		return err
	}

	var rows []models.MeasurementLine
	if err := tx.Where("payment_id = ?", p.ID).Find(&rows).Error; err != nil {
		return err
	}

	lines := make([]settlement.Line, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, settlement.Line{
			MeasuredQuantity: r.MeasuredQuantity,
			UnitPrice:        r.UnitPrice,
		})
	}

	recovered, err := advanceRecoveredBefore(tx, p.ProjectID, p.PaymentNo)
	if err != nil {
		return err
	}

	b := settlement.Calculate(lines, cfg, settlement.Options{
		AdvanceOverride:  p.AdvanceOverride,
		OtherDeductions:  p.OtherDeductions,
		AdvanceRecovered: recovered,
	})

	updates := map[string]interface{}{
		"gross_amount":       b.Gross,
		"vat_amount":         b.VatAmount,
		"withholding_amount": b.WithholdingAmount,
		"stamp_tax_amount":   b.StampTaxAmount,
		"advance_deduction":  b.AdvanceDeduction,
		"net_amount":         b.Net,
		"version":            gorm.Expr("version + 1"),
	}
	if err := tx.Model(&models.ProgressPayment{}).
		Where("id = ?", p.ID).
		Updates(updates).Error; err != nil {
		return err
	}

	// çağıranın elindeki kopyayı tazele
	return tx.First(p, p.ID).Error
}

// advanceRecoveredBefore - önceki dönemlerde kesilmiş toplam avans.
// Reddedilen dönemler sayılmaz; sıra ölçüsü hakediş numarasıdır.
func advanceRecoveredBefore(tx *gorm.DB, projectID uint, paymentNo int) (float64, error) {
	var total float64
	err := tx.Model(&models.ProgressPayment{}).
		Where("project_id = ? AND payment_no < ? AND status <> ?",
			projectID, paymentNo, models.PaymentRejected).
		Select("COALESCE(SUM(advance_deduction), 0)").
		Scan(&total).Error
	return total, err
}
