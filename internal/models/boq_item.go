package models

import "time"

// BoqItem - Birim fiyat teklif cetveli (BOQ) kalemi.
// Poz no aktif kayıtlar arasında proje içinde tekil (kısmi unique index);
// silinmiş bir pozun numarası yeniden kullanılabilir. Metraj girilen bir
// kalem silinemez, birim fiyatı da geçmiş hakedişleri etkilemez
// (satırlar fiyatı snapshot'lar).
type BoqItem struct {
	ID          uint    `gorm:"primaryKey"`
	ProjectID   uint    `gorm:"index:idx_boq_project_poz,unique,where:is_deleted = false;not null"`
	Project     Project `gorm:"foreignKey:ProjectID"`
	PozNo       string  `gorm:"size:50;index:idx_boq_project_poz,unique,where:is_deleted = false;not null"`
	Description string  `gorm:"size:500;not null"` // iş tanımı
	Unit        string  `gorm:"size:20;not null"`  // m, m2, m3, kg, adet...
	Quantity    float64 `gorm:"not null"`          // sözleşme miktarı
	UnitPrice   float64 `gorm:"not null"`
	TotalPrice  float64 `gorm:"not null"` // Quantity * UnitPrice
	IsDeleted   bool    `gorm:"index;not null;default:false"`
	CreatedBy   uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
