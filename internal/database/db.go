package database

import (
	"log"

	"hakedis-backend/internal/config"
	"hakedis-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.BoqItem{},
		&models.PaymentConfig{},
		&models.ProgressPayment{},
		&models.MeasurementLine{},
		&models.PaymentHistory{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	// Eski kurulumlardan kalan, hakediş ayarı olmayan projeler için varsayılan
	// ayar kaydı oluştur. Ayarı olmayan mevcut bir projede hesaplama hard error
	// verdiği için bu backfill şart.
	var orphanProjects []models.Project
	if err := DB.
		Where("id NOT IN (?)", DB.Model(&models.PaymentConfig{}).Select("project_id")).
		Find(&orphanProjects).Error; err != nil {
		log.Printf("PaymentConfig backfill kontrolünde hata: %v", err)
	} else if len(orphanProjects) > 0 {
		log.Printf("%d proje için varsayılan hakediş ayarı oluşturuluyor...", len(orphanProjects))
		for _, p := range orphanProjects {
			cfgRec := models.PaymentConfig{
				ProjectID:       p.ID,
				VatRate:         models.DefaultVatRate,
				WithholdingRate: models.DefaultWithholding,
				StampTaxRate:    models.DefaultStampTaxRate,
				CreatedBy:       p.CreatedBy,
			}
			if err := DB.Create(&cfgRec).Error; err != nil {
				log.Printf("Proje %d için varsayılan ayar oluşturulamadı: %v", p.ID, err)
			}
		}
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
