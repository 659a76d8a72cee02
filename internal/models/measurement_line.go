package models

import "time"

// MeasurementLine - Bir hakediş dönemi içinde tek bir BOQ kalemi için girilen metraj.
// PozNo/Description/Unit/UnitPrice giriş anında BOQ kaleminden kopyalanır;
// sonradan yapılan poz düzeltmeleri kesinleşmiş dönemleri değiştirmez.
type MeasurementLine struct {
	ID        uint            `gorm:"primaryKey"`
	ProjectID uint            `gorm:"index;not null"`
	PaymentID uint            `gorm:"index;not null"`
	Payment   ProgressPayment `gorm:"foreignKey:PaymentID"`
	BoqItemID uint            `gorm:"index;not null"`
	BoqItem   BoqItem         `gorm:"foreignKey:BoqItemID"`

	PozNo       string `gorm:"size:50;not null"`
	Description string `gorm:"size:500"`
	Unit        string `gorm:"size:20"`

	PreviousQuantity   float64 `gorm:"not null;default:0"` // önceki dönemler toplamı
	MeasuredQuantity   float64 `gorm:"not null"`           // bu dönem
	CumulativeQuantity float64 `gorm:"not null"`           // önceki + bu dönem
	UnitPrice          float64 `gorm:"not null"`
	LineTotal          float64 `gorm:"not null"` // MeasuredQuantity * UnitPrice

	Notes  string `gorm:"size:500"`
	Photos string `gorm:"type:jsonb;default:'[]'"` // harici depodaki fotoğraf referansları

	CreatedBy uint
	CreatedAt time.Time
	UpdatedAt time.Time
}
