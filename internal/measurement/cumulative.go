package measurement

import (
	"hakedis-backend/internal/models"

	"gorm.io/gorm"
)

// PriorQuantities - hedef dönemden önceki dönemlerde kesinleşmiş metraj
// toplamlarını BOQ kalemi bazında döndürür. Sıralama ölçüsü hakediş
// numarasıdır, oluşturulma zamanı değil; reddedilmiş dönemler sayılmaz.
// Her çağrıda sıfırdan toplanır: geçmiş dönemlerde yapılan düzeltmeler ayrı
// bir backfill gerektirmeden yansır.
func PriorQuantities(payments []models.ProgressPayment, lines []models.MeasurementLine, targetNo int) map[uint]float64 {
	prior := make(map[uint]bool, len(payments))
	for _, p := range payments {
		if p.PaymentNo < targetNo && p.Status != models.PaymentRejected {
			prior[p.ID] = true
		}
	}

	totals := make(map[uint]float64)
	for _, l := range lines {
		if prior[l.PaymentID] {
			totals[l.BoqItemID] += l.MeasuredQuantity
		}
	}
	return totals
}

// LoadPriorQuantities - projenin tüm dönem ve satırlarını çekip
// PriorQuantities'e verir.
func LoadPriorQuantities(db *gorm.DB, projectID uint, targetNo int) (map[uint]float64, error) {
	var payments []models.ProgressPayment
	if err := db.Where("project_id = ?", projectID).Find(&payments).Error; err != nil {
		return nil, err
	}

	var lines []models.MeasurementLine
	if err := db.Where("project_id = ?", projectID).Find(&lines).Error; err != nil {
		return nil, err
	}

	return PriorQuantities(payments, lines, targetNo), nil
}
