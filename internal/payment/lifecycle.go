// Package payment hakediş döneminin yaşam döngüsünü yönetir:
// draft -> pending_review -> pending_approval -> approved -> paid,
// red pending durumlarından draft'a dönmeden terminal olarak kalır
// (reddedilen dönem yeni bir taslakla devam eder). Her geçiş aynı
// transaction içinde payment_histories tablosuna yazılır.
package payment

import (
	"errors"
	"fmt"
	"time"

	"hakedis-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPeriodNotDraft = errors.New("hakediş taslak durumda değil")
	ErrNoMeasurements = errors.New("hakedişte en az bir metraj satırı olmalı")
	ErrReasonRequired = errors.New("red için gerekçe zorunlu")
	ErrConfigMissing  = errors.New("proje hakediş ayarı bulunamadı")
	ErrStaleVersion   = errors.New("hakediş bu arada değişti, güncel halini çekip tekrar deneyin")
)

// TransitionError - izin verilmeyen durum geçişi; dönem üzerinde hiçbir
// değişiklik yapılmadan döner
type TransitionError struct {
	From models.PaymentStatus
	To   models.PaymentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("geçersiz durum geçişi: %s -> %s", e.From, e.To)
}

var transitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentDraft:           {models.PaymentPendingReview},
	models.PaymentPendingReview:   {models.PaymentPendingApproval, models.PaymentRejected},
	models.PaymentPendingApproval: {models.PaymentApproved, models.PaymentRejected},
	models.PaymentApproved:        {models.PaymentPaid},
	// paid ve rejected terminal
}

// CanTransition - durum makinesi tablosuna göre geçiş serbest mi
func CanTransition(from, to models.PaymentStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Actor - geçişi yapan kullanıcı; her geçmiş kaydına işlenir
type Actor struct {
	ID   uint
	Name string
}

// PaymentDetails - approved -> paid geçişinde dışarıdan gelen ödeme teyidi
type PaymentDetails struct {
	Amount    float64
	Date      time.Time
	Reference string
}

// submitGuard - boş dönem incelemeye gönderilemez
func submitGuard(lineCount int64) error {
	if lineCount == 0 {
		return ErrNoMeasurements
	}
	return nil
}

// Submit - draft -> pending_review. En az bir metraj satırı ister;
// sonrasında dönem satır düzenlemeye kapanır.
func Submit(db *gorm.DB, paymentID uint, actor Actor) (*models.ProgressPayment, error) {
	return transition(db, paymentID, models.PaymentPendingReview, actor, "Hakediş incelemeye gönderildi",
		func(tx *gorm.DB, p *models.ProgressPayment) error {
			var count int64
			if err := tx.Model(&models.MeasurementLine{}).
				Where("payment_id = ?", p.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if err := submitGuard(count); err != nil {
				return err
			}

			now := time.Now()
			p.SubmittedAt = &now
			p.SubmittedBy = &actor.ID
			return nil
		})
}

// Review - pending_review -> pending_approval. Saf durum değişikliği.
func Review(db *gorm.DB, paymentID uint, actor Actor) (*models.ProgressPayment, error) {
	return transition(db, paymentID, models.PaymentPendingApproval, actor, "İnceleme tamamlandı, onaya gönderildi", nil)
}

// Approve - pending_approval -> approved. Onay zamanı ve onaylayanı damgalar.
func Approve(db *gorm.DB, paymentID uint, actor Actor) (*models.ProgressPayment, error) {
	return transition(db, paymentID, models.PaymentApproved, actor, "Hakediş onaylandı",
		func(tx *gorm.DB, p *models.ProgressPayment) error {
			now := time.Now()
			p.ApprovedAt = &now
			p.ApprovedBy = &actor.ID
			return nil
		})
}

// Reject - pending_review/pending_approval -> rejected. Gerekçe zorunlu;
// dönem terminaldir, rework yeni bir taslak dönemle yapılır.
func Reject(db *gorm.DB, paymentID uint, actor Actor, reason string) (*models.ProgressPayment, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return transition(db, paymentID, models.PaymentRejected, actor, reason,
		func(tx *gorm.DB, p *models.ProgressPayment) error {
			p.RejectReason = reason
			return nil
		})
}

// RecordPayment - approved -> paid. Ödeme teyidi (tutar, tarih, referans)
// dönem üzerine işlenir; paid sonrası dönem hiçbir akıştan değişmez.
func RecordPayment(db *gorm.DB, paymentID uint, actor Actor, details PaymentDetails) (*models.ProgressPayment, error) {
	desc := fmt.Sprintf("Ödeme kaydedildi: %.2f TL, ref %s", details.Amount, details.Reference)
	return transition(db, paymentID, models.PaymentPaid, actor, desc,
		func(tx *gorm.DB, p *models.ProgressPayment) error {
			paidAt := details.Date
			if paidAt.IsZero() {
				paidAt = time.Now()
			}
			p.PaidAt = &paidAt
			p.PaidBy = &actor.ID
			p.PaidAmount = details.Amount
			p.PaymentReference = details.Reference
			return nil
		})
}

// transition - ortak geçiş iskeleti: dönemi kilitleyerek okur, tabloya ve
// komuta özel guard'lara bakar, durum + damgaları tek transaction'da yazar,
// geçmiş kaydını ekler. Guard düşerse hiçbir şey yazılmaz.
func transition(
	db *gorm.DB,
	paymentID uint,
	to models.PaymentStatus,
	actor Actor,
	reason string,
	mutate func(tx *gorm.DB, p *models.ProgressPayment) error,
) (*models.ProgressPayment, error) {
	var result models.ProgressPayment

	err := db.Transaction(func(tx *gorm.DB) error {
		var p models.ProgressPayment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, paymentID).Error; err != nil {
			return err
		}

		from := p.Status
		if !CanTransition(from, to) {
			return &TransitionError{From: from, To: to}
		}

		if mutate != nil {
			if err := mutate(tx, &p); err != nil {
				return err
			}
		}

		p.Status = to
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		hist := models.PaymentHistory{
			PaymentID:  p.ID,
			ProjectID:  p.ProjectID,
			FromStatus: from,
			ToStatus:   to,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			Reason:     reason,
		}
		if err := tx.Create(&hist).Error; err != nil {
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
