package models

import "time"

// Varsayılan oranlar (yüzde): yeni proje açılırken seed edilir
const (
	DefaultVatRate      = 20.0
	DefaultWithholding  = 3.0
	DefaultStampTaxRate = 0.825
)

// PaymentConfig - Proje bazlı hakediş hesaplama ayarları.
// Oranlar yüzde olarak saklanır (20 = %20). Çekirdek hesaplama bu kaydı
// sadece okur; düzenleme ayrı bir admin akışıdır.
type PaymentConfig struct {
	ID        uint    `gorm:"primaryKey"`
	ProjectID uint    `gorm:"uniqueIndex;not null"`
	Project   Project `gorm:"foreignKey:ProjectID"`

	VatRate         float64 `gorm:"not null;default:20"`
	WithholdingRate float64 `gorm:"not null;default:3"`
	StampTaxRate    float64 `gorm:"not null;default:0.825"`

	AdvanceAmount        float64 `gorm:"not null;default:0"` // verilen toplam avans
	AdvanceDeductionRate float64 `gorm:"not null;default:0"` // her hakedişten kesilecek oran (yüzde)

	CreatedBy uint
	CreatedAt time.Time
	UpdatedAt time.Time
}
