package measurement

import (
	"encoding/json"
	"errors"

	"hakedis-backend/internal/audit"
	"hakedis-backend/internal/auth"
	"hakedis-backend/internal/database"
	"hakedis-backend/internal/models"
	"hakedis-backend/internal/payment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LineResponse struct {
	ID                 uint     `json:"id"`
	ProjectID          uint     `json:"project_id"`
	PaymentID          uint     `json:"payment_id"`
	BoqItemID          uint     `json:"boq_item_id"`
	PozNo              string   `json:"poz_no"`
	Description        string   `json:"description"`
	Unit               string   `json:"unit"`
	PreviousQuantity   float64  `json:"previous_quantity"`
	MeasuredQuantity   float64  `json:"measured_quantity"`
	CumulativeQuantity float64  `json:"cumulative_quantity"`
	UnitPrice          float64  `json:"unit_price"`
	LineTotal          float64  `json:"line_total"`
	Notes              string   `json:"notes"`
	Photos             []string `json:"photos"`
	CreatedAt          string   `json:"created_at"`
}

type CreateLineRequest struct {
	BoqItemID        uint     `json:"boq_item_id"`
	MeasuredQuantity float64  `json:"measured_quantity"`
	Notes            string   `json:"notes"`
	Photos           []string `json:"photos"`
	BaseVersion      *uint    `json:"base_version"` // doluysa bayat yazma reddi
}

type UpdateLineRequest struct {
	MeasuredQuantity *float64  `json:"measured_quantity"`
	Notes            *string   `json:"notes"`
	Photos           *[]string `json:"photos"`
	BaseVersion      *uint     `json:"base_version"`
}

type BulkLineRequest struct {
	Lines       []CreateLineRequest `json:"lines"`
	BaseVersion *uint               `json:"base_version"`
}

func toLineResponse(l models.MeasurementLine) LineResponse {
	photos := []string{}
	_ = json.Unmarshal([]byte(l.Photos), &photos)

	return LineResponse{
		ID:                 l.ID,
		ProjectID:          l.ProjectID,
		PaymentID:          l.PaymentID,
		BoqItemID:          l.BoqItemID,
		PozNo:              l.PozNo,
		Description:        l.Description,
		Unit:               l.Unit,
		PreviousQuantity:   l.PreviousQuantity,
		MeasuredQuantity:   l.MeasuredQuantity,
		CumulativeQuantity: l.CumulativeQuantity,
		UnitPrice:          l.UnitPrice,
		LineTotal:          l.LineTotal,
		Notes:              l.Notes,
		Photos:             photos,
		CreatedAt:          l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func photosJSON(photos []string) string {
	if photos == nil {
		photos = []string{}
	}
	b, err := json.Marshal(photos)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// validateLineRequest - satır girdisi herhangi bir yazmadan önce doğrulanır;
// sıfır veya negatif metraj kaydedilmez.
func validateLineRequest(req CreateLineRequest) error {
	if req.BoqItemID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "boq_item_id zorunlu")
	}
	if req.MeasuredQuantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Metraj miktarı pozitif olmalı")
	}
	return nil
}

// ensureDraft - draft dışındaki dönemde satır mutasyonu yapılamaz; guard
// düştüğünde satırlar ve türetilmiş tutarlar olduğu gibi kalır.
func ensureDraft(p *models.ProgressPayment, msg string) error {
	if p.Status != models.PaymentDraft {
		return fiber.NewError(fiber.StatusConflict, msg)
	}
	return nil
}

// refreshCumulative - önceki dönem toplamını satıra güncel haliyle işler.
// Geçmiş taslak dönemlerde yapılan düzeltmeler ayrı bir backfill adımı
// olmadan buradan yansır.
func refreshCumulative(line *models.MeasurementLine, priors map[uint]float64) {
	prev := priors[line.BoqItemID]
	line.PreviousQuantity = prev
	line.CumulativeQuantity = prev + line.MeasuredQuantity
	line.LineTotal = line.MeasuredQuantity * line.UnitPrice
}

// loadDraftPayment - satır mutasyonlarının ortak girişi: dönemi okur,
// draft ve versiyon kontrollerini yapar. Draft dışı dönem 409 döner.
func loadDraftPayment(tx *gorm.DB, paymentID string, baseVersion *uint) (*models.ProgressPayment, error) {
	var p models.ProgressPayment
	if err := tx.First(&p, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Hakediş bulunamadı")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Hakediş okunamadı")
	}

	if err := ensureDraft(&p, "Sadece taslak hakedişe metraj girilebilir"); err != nil {
		return nil, err
	}

	if baseVersion != nil && *baseVersion != p.Version {
		return nil, fiber.NewError(fiber.StatusConflict, payment.ErrStaleVersion.Error())
	}

	return &p, nil
}

// buildLine - BOQ kaleminden snapshot alıp kümülatifleri hesaplayarak
// satırı kurar. Sözleşme miktarı aşımı engellenmez, sadece raporlanır.
func buildLine(tx *gorm.DB, p *models.ProgressPayment, req CreateLineRequest, userID uint) (*models.MeasurementLine, error) {
	if err := validateLineRequest(req); err != nil {
		return nil, err
	}

	var item models.BoqItem
	if err := tx.First(&item, "id = ? AND is_deleted = false", req.BoqItemID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "BOQ kalemi bulunamadı")
	}
	if item.ProjectID != p.ProjectID {
		return nil, fiber.NewError(fiber.StatusBadRequest, "BOQ kalemi bu projeye ait değil")
	}

	var dup int64
	if err := tx.Model(&models.MeasurementLine{}).
		Where("payment_id = ? AND boq_item_id = ?", p.ID, req.BoqItemID).
		Count(&dup).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Satır kontrolü yapılamadı")
	}
	if dup > 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "Bu poz için bu dönemde zaten metraj girilmiş")
	}

	priors, err := LoadPriorQuantities(tx, p.ProjectID, p.PaymentNo)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Önceki dönem metrajları okunamadı")
	}

	line := models.MeasurementLine{
		ProjectID:        p.ProjectID,
		PaymentID:        p.ID,
		BoqItemID:        item.ID,
		PozNo:            item.PozNo,
		Description:      item.Description,
		Unit:             item.Unit,
		MeasuredQuantity: req.MeasuredQuantity,
		UnitPrice:        item.UnitPrice,
		Notes:            req.Notes,
		Photos:           photosJSON(req.Photos),
		CreatedBy:        userID,
	}
	refreshCumulative(&line, priors)
	return &line, nil
}

// POST /api/payments/:id/measurements (admin, engineer)
func CreateLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var created models.MeasurementLine
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			p, err := loadDraftPayment(tx, c.Params("id"), body.BaseVersion)
			if err != nil {
				return err
			}

			line, err := buildLine(tx, p, body, user.ID)
			if err != nil {
				return err
			}

			if err := tx.Create(line).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Metraj satırı kaydedilemedi")
			}

			if err := payment.RecalculateTx(tx, p); err != nil {
				return err
			}

			created = *line
			return nil
		})
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &created.ProjectID,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "measurement_line",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: "Metraj girildi: " + created.PozNo,
			After:       created,
		})

		return c.Status(fiber.StatusCreated).JSON(toLineResponse(created))
	}
}

// POST /api/payments/:id/measurements/bulk (admin, engineer)
// Dönemin satırlarını toptan kaydeder: gelen listede olmayan mevcut satır
// silinir, olan güncellenir, yeni olan eklenir. Tek transaction, tek recalc.
func BulkUpsertHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.Lines) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir satır gönderilmeli")
		}

		seen := make(map[uint]bool, len(body.Lines))
		for _, l := range body.Lines {
			if err := validateLineRequest(l); err != nil {
				return err
			}
			if seen[l.BoqItemID] {
				return fiber.NewError(fiber.StatusBadRequest, "Aynı poz listede birden fazla kez var")
			}
			seen[l.BoqItemID] = true
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var result []models.MeasurementLine
		var projectID, paymentID uint

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			p, err := loadDraftPayment(tx, c.Params("id"), body.BaseVersion)
			if err != nil {
				return err
			}
			projectID = p.ProjectID
			paymentID = p.ID

			var existing []models.MeasurementLine
			if err := tx.Where("payment_id = ?", p.ID).Find(&existing).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Mevcut satırlar okunamadı")
			}
			byItem := make(map[uint]models.MeasurementLine, len(existing))
			for _, l := range existing {
				byItem[l.BoqItemID] = l
			}

			priors, err := LoadPriorQuantities(tx, p.ProjectID, p.PaymentNo)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Önceki dönem metrajları okunamadı")
			}

			// listede olmayanlar silinir
			for itemID, l := range byItem {
				if seen[itemID] {
					continue
				}
				if err := tx.Delete(&models.MeasurementLine{}, l.ID).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Satır silinemedi")
				}
			}

			for _, req := range body.Lines {
				if old, ok := byItem[req.BoqItemID]; ok {
					old.MeasuredQuantity = req.MeasuredQuantity
					old.Notes = req.Notes
					old.Photos = photosJSON(req.Photos)
					refreshCumulative(&old, priors)
					if err := tx.Save(&old).Error; err != nil {
						return fiber.NewError(fiber.StatusInternalServerError, "Satır güncellenemedi")
					}
					result = append(result, old)
					continue
				}

				line, err := buildLine(tx, p, req, user.ID)
				if err != nil {
					return err
				}
				if err := tx.Create(line).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Satır kaydedilemedi")
				}
				result = append(result, *line)
			}

			return payment.RecalculateTx(tx, p)
		})
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &projectID,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "progress_payment",
			EntityID:    paymentID,
			Action:      models.AuditActionUpdate,
			Description: "Metrajlar toplu kaydedildi",
			After:       result,
		})

		res := make([]LineResponse, 0, len(result))
		for _, l := range result {
			res = append(res, toLineResponse(l))
		}
		return c.JSON(res)
	}
}

// GET /api/payments/:id/measurements
func ListLinesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		paymentID := c.Params("id")

		var p models.ProgressPayment
		if err := database.DB.First(&p, "id = ?", paymentID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Hakediş bulunamadı")
		}

		var lines []models.MeasurementLine
		if err := database.DB.
			Where("payment_id = ?", p.ID).
			Order("poz_no ASC").
			Find(&lines).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Metraj satırları listelenemedi")
		}

		res := make([]LineResponse, 0, len(lines))
		for _, l := range lines {
			res = append(res, toLineResponse(l))
		}
		return c.JSON(res)
	}
}

// PUT /api/measurements/:id (admin, engineer)
func UpdateLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var before, after models.MeasurementLine

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var line models.MeasurementLine
			if err := tx.First(&line, "id = ?", c.Params("id")).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Metraj satırı bulunamadı")
			}
			before = line

			var p models.ProgressPayment
			if err := tx.First(&p, line.PaymentID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Hakediş okunamadı")
			}
			if err := ensureDraft(&p, "Sadece taslak hakedişte metraj düzenlenebilir"); err != nil {
				return err
			}
			if body.BaseVersion != nil && *body.BaseVersion != p.Version {
				return fiber.NewError(fiber.StatusConflict, payment.ErrStaleVersion.Error())
			}

			if body.MeasuredQuantity != nil {
				if *body.MeasuredQuantity <= 0 {
					return fiber.NewError(fiber.StatusBadRequest, "Metraj miktarı pozitif olmalı")
				}
				line.MeasuredQuantity = *body.MeasuredQuantity
			}
			if body.Notes != nil {
				line.Notes = *body.Notes
			}
			if body.Photos != nil {
				line.Photos = photosJSON(*body.Photos)
			}

			// önceki dönemler bu satır açıldıktan sonra düzeltilmiş olabilir;
			// saklanan snapshot'a güvenme, güncel toplamı yeniden çek
			priors, err := LoadPriorQuantities(tx, line.ProjectID, p.PaymentNo)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Önceki dönem metrajları okunamadı")
			}
			refreshCumulative(&line, priors)

			if err := tx.Save(&line).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Metraj satırı güncellenemedi")
			}

			if err := payment.RecalculateTx(tx, &p); err != nil {
				return err
			}

			after = line
			return nil
		})
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &after.ProjectID,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "measurement_line",
			EntityID:    after.ID,
			Action:      models.AuditActionUpdate,
			Description: "Metraj güncellendi: " + after.PozNo,
			Before:      before,
			After:       after,
		})

		return c.JSON(toLineResponse(after))
	}
}

// DELETE /api/measurements/:id (admin, engineer)
func DeleteLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var deleted models.MeasurementLine

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var line models.MeasurementLine
			if err := tx.First(&line, "id = ?", c.Params("id")).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Metraj satırı bulunamadı")
			}

			var p models.ProgressPayment
			if err := tx.First(&p, line.PaymentID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Hakediş okunamadı")
			}
			if err := ensureDraft(&p, "Sadece taslak hakedişte metraj silinebilir"); err != nil {
				return err
			}

			if err := tx.Delete(&models.MeasurementLine{}, line.ID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Metraj satırı silinemedi")
			}

			if err := payment.RecalculateTx(tx, &p); err != nil {
				return err
			}

			deleted = line
			return nil
		})
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &deleted.ProjectID,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "measurement_line",
			EntityID:    deleted.ID,
			Action:      models.AuditActionDelete,
			Description: "Metraj silindi: " + deleted.PozNo,
			Before:      deleted,
		})

		return c.JSON(fiber.Map{"message": "Metraj satırı silindi"})
	}
}
