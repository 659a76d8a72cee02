package models

import "time"

// PaymentHistory - Hakediş durum geçişlerinin append-only kaydı.
// Hiçbir akış bu tabloda güncelleme/silme yapmaz.
type PaymentHistory struct {
	ID        uint `gorm:"primaryKey"`
	PaymentID uint `gorm:"index;not null"`
	ProjectID uint `gorm:"index;not null"`

	FromStatus PaymentStatus `gorm:"size:20;not null"`
	ToStatus   PaymentStatus `gorm:"size:20;not null"`

	ActorID   uint   `gorm:"not null"`
	ActorName string `gorm:"size:100"` // denormalize

	Reason string `gorm:"size:500"` // red için zorunlu

	CreatedAt time.Time
}
