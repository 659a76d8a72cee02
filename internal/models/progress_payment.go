package models

import "time"

type PaymentStatus string

const (
	PaymentDraft           PaymentStatus = "draft"
	PaymentPendingReview   PaymentStatus = "pending_review"
	PaymentPendingApproval PaymentStatus = "pending_approval"
	PaymentApproved        PaymentStatus = "approved"
	PaymentRejected        PaymentStatus = "rejected"
	PaymentPaid            PaymentStatus = "paid"
)

// ProgressPayment - Hakediş dönemi. Tutar alanları türetilmiştir:
// metraj satırları her değiştiğinde dönemin tamamı yeniden hesaplanır,
// elle güncellenmez. Sadece draft durumda metraj girilebilir.
type ProgressPayment struct {
	ID        uint    `gorm:"primaryKey"`
	ProjectID uint    `gorm:"index:idx_payment_project_no,unique;not null"`
	Project   Project `gorm:"foreignKey:ProjectID"`

	PaymentNo int    `gorm:"index:idx_payment_project_no,unique;not null"` // hakediş sıra no, 1'den başlar
	Title     string `gorm:"size:200;not null"` // örn: "1. Hakediş - Ocak 2025"

	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`

	Status PaymentStatus `gorm:"size:20;index;not null;default:'draft'"`

	// Türetilmiş tutarlar
	GrossAmount       float64 `gorm:"not null;default:0"` // brüt
	VatAmount         float64 `gorm:"not null;default:0"` // KDV (eklenir)
	WithholdingAmount float64 `gorm:"not null;default:0"` // stopaj (kesilir)
	StampTaxAmount    float64 `gorm:"not null;default:0"` // damga vergisi (kesilir)
	AdvanceDeduction  float64 `gorm:"not null;default:0"` // avans kesintisi (kesilir)
	OtherDeductions   float64 `gorm:"not null;default:0"` // elle girilen diğer kesintiler
	NetAmount         float64 `gorm:"not null;default:0"`

	// Dolu ise avans kesintisi oran yerine bu sabit tutardan hesaplanır
	AdvanceOverride *float64

	// Her yeniden hesaplamada artar; bayat yazmaları yakalamak için
	Version uint `gorm:"not null;default:0"`

	CreatedBy uint
	CreatedAt time.Time
	UpdatedAt time.Time

	SubmittedAt *time.Time
	SubmittedBy *uint
	ApprovedAt  *time.Time
	ApprovedBy  *uint
	PaidAt      *time.Time
	PaidBy      *uint

	PaidAmount       float64 `gorm:"default:0"`
	PaymentReference string  `gorm:"size:100"` // dekont / banka referansı
	RejectReason     string  `gorm:"size:500"`
}
