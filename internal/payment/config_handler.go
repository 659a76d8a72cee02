package payment

import (
	"errors"

	"hakedis-backend/internal/audit"
	"hakedis-backend/internal/auth"
	"hakedis-backend/internal/database"
	"hakedis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ConfigResponse struct {
	ProjectID            uint    `json:"project_id"`
	VatRate              float64 `json:"vat_rate"`
	WithholdingRate      float64 `json:"withholding_rate"`
	StampTaxRate         float64 `json:"stamp_tax_rate"`
	AdvanceAmount        float64 `json:"advance_amount"`
	AdvanceDeductionRate float64 `json:"advance_deduction_rate"`
	UpdatedAt            string  `json:"updated_at"`
}

type UpdateConfigRequest struct {
	VatRate              *float64 `json:"vat_rate"`
	WithholdingRate      *float64 `json:"withholding_rate"`
	StampTaxRate         *float64 `json:"stamp_tax_rate"`
	AdvanceAmount        *float64 `json:"advance_amount"`
	AdvanceDeductionRate *float64 `json:"advance_deduction_rate"`
}

func toConfigResponse(cfg models.PaymentConfig) ConfigResponse {
	return ConfigResponse{
		ProjectID:            cfg.ProjectID,
		VatRate:              cfg.VatRate,
		WithholdingRate:      cfg.WithholdingRate,
		StampTaxRate:         cfg.StampTaxRate,
		AdvanceAmount:        cfg.AdvanceAmount,
		AdvanceDeductionRate: cfg.AdvanceDeductionRate,
		UpdatedAt:            cfg.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/projects/:id/payment-config
func GetConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz proje ID")
		}

		var cfg models.PaymentConfig
		if err := database.DB.Where("project_id = ?", projectID).First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Proje hakediş ayarı bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Ayar okunamadı")
		}

		return c.JSON(toConfigResponse(cfg))
	}
}

// PUT /api/projects/:id/payment-config (admin)
// Oranlar yüzde olarak gelir. Değişiklik yalnız sonraki hesaplamaları
// etkiler; kesinleşmiş dönemlerin tutarlarına dokunulmaz.
func UpdateConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz proje ID")
		}

		var cfg models.PaymentConfig
		if err := database.DB.Where("project_id = ?", projectID).First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Proje hakediş ayarı bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Ayar okunamadı")
		}
		before := cfg

		var body UpdateConfigRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		setRate := func(dst *float64, v *float64, name string) error {
			if v == nil {
				return nil
			}
			if *v < 0 || *v > 100 {
				return fiber.NewError(fiber.StatusBadRequest, name+" 0-100 arası olmalı")
			}
			*dst = *v
			return nil
		}

		if err := setRate(&cfg.VatRate, body.VatRate, "KDV oranı"); err != nil {
			return err
		}
		if err := setRate(&cfg.WithholdingRate, body.WithholdingRate, "Stopaj oranı"); err != nil {
			return err
		}
		if err := setRate(&cfg.StampTaxRate, body.StampTaxRate, "Damga vergisi oranı"); err != nil {
			return err
		}
		if err := setRate(&cfg.AdvanceDeductionRate, body.AdvanceDeductionRate, "Avans kesinti oranı"); err != nil {
			return err
		}
		if body.AdvanceAmount != nil {
			if *body.AdvanceAmount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Avans tutarı negatif olamaz")
			}
			cfg.AdvanceAmount = *body.AdvanceAmount
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		if err := database.DB.Save(&cfg).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayar güncellenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &cfg.ProjectID,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "payment_config",
			EntityID:    cfg.ID,
			Action:      models.AuditActionUpdate,
			Description: "Hakediş ayarları güncellendi",
			Before:      before,
			After:       cfg,
		})

		return c.JSON(toConfigResponse(cfg))
	}
}
