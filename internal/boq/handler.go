package boq

import (
	"errors"
	"strings"

	"hakedis-backend/internal/audit"
	"hakedis-backend/internal/auth"
	"hakedis-backend/internal/database"
	"hakedis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BoqItemResponse struct {
	ID          uint    `json:"id"`
	ProjectID   uint    `json:"project_id"`
	PozNo       string  `json:"poz_no"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	CreatedAt   string  `json:"created_at"`
}

type CreateBoqItemRequest struct {
	PozNo       string  `json:"poz_no"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type UpdateBoqItemRequest struct {
	Description *string  `json:"description"`
	Unit        *string  `json:"unit"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
}

func toResponse(item models.BoqItem) BoqItemResponse {
	return BoqItemResponse{
		ID:          item.ID,
		ProjectID:   item.ProjectID,
		PozNo:       item.PozNo,
		Description: item.Description,
		Unit:        item.Unit,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TotalPrice:  item.TotalPrice,
		CreatedAt:   item.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/projects/:id/boq-items (admin, engineer)
func CreateBoqItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz proje ID")
		}

		var project models.Project
		if err := database.DB.First(&project, "id = ?", projectID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proje bulunamadı")
		}

		var body CreateBoqItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.PozNo = strings.TrimSpace(body.PozNo)
		body.Description = strings.TrimSpace(body.Description)
		body.Unit = strings.TrimSpace(body.Unit)

		if body.PozNo == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Poz no zorunlu")
		}
		if body.Description == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Poz tanımı zorunlu")
		}
		if body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Birim zorunlu")
		}
		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Miktar negatif olamaz")
		}
		if body.UnitPrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Birim fiyat negatif olamaz")
		}

		// Aynı pozun daha önce silinmiş olması yeniden kullanmayı engellemez;
		// aktif kayıtlar arasında tekillik aranır.
		var existing models.BoqItem
		err = database.DB.
			Where("project_id = ? AND poz_no = ? AND is_deleted = false", projectID, body.PozNo).
			First(&existing).Error
		if err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu poz no bu projede zaten kayıtlı")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "Poz kontrolü yapılamadı")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		item := models.BoqItem{
			ProjectID:   uint(projectID),
			PozNo:       body.PozNo,
			Description: body.Description,
			Unit:        body.Unit,
			Quantity:    body.Quantity,
			UnitPrice:   body.UnitPrice,
			TotalPrice:  body.Quantity * body.UnitPrice,
			CreatedBy:   user.ID,
		}

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Poz oluşturulamadı")
		}

		pid := uint(projectID)
		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &pid,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "boq_item",
			EntityID:    item.ID,
			Action:      models.AuditActionCreate,
			Description: "Poz eklendi: " + item.PozNo,
			After:       item,
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(item))
	}
}

// GET /api/projects/:id/boq-items
func ListBoqItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz proje ID")
		}

		var items []models.BoqItem
		if err := database.DB.
			Where("project_id = ? AND is_deleted = false", projectID).
			Order("poz_no ASC").
			Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pozlar listelenemedi")
		}

		res := make([]BoqItemResponse, 0, len(items))
		for _, item := range items {
			res = append(res, toResponse(item))
		}
		return c.JSON(res)
	}
}

// PUT /api/boq-items/:id (admin, engineer)
// Birim fiyat değişikliği geçmiş hakedişlerdeki snapshot'ları etkilemez,
// sadece yeni metraj satırlarına yansır.
func UpdateBoqItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.BoqItem
		if err := database.DB.First(&item, "id = ? AND is_deleted = false", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Poz bulunamadı")
		}

		var body UpdateBoqItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		before := item

		if body.Description != nil {
			desc := strings.TrimSpace(*body.Description)
			if desc == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Poz tanımı boş olamaz")
			}
			item.Description = desc
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Birim boş olamaz")
			}
			item.Unit = unit
		}
		if body.Quantity != nil {
			if *body.Quantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Miktar negatif olamaz")
			}
			item.Quantity = *body.Quantity
		}
		if body.UnitPrice != nil {
			if *body.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Birim fiyat negatif olamaz")
			}
			item.UnitPrice = *body.UnitPrice
		}
		item.TotalPrice = item.Quantity * item.UnitPrice

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Poz güncellenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &item.ProjectID,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "boq_item",
			EntityID:    item.ID,
			Action:      models.AuditActionUpdate,
			Description: "Poz güncellendi: " + item.PozNo,
			Before:      before,
			After:       item,
		})

		return c.JSON(toResponse(item))
	}
}

// DELETE /api/boq-items/:id (admin)
// Metraj satırı referans veren poz silinemez; snapshot'lar tutarlı kalır.
func DeleteBoqItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.BoqItem
		if err := database.DB.First(&item, "id = ? AND is_deleted = false", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Poz bulunamadı")
		}

		var lineCount int64
		if err := database.DB.Model(&models.MeasurementLine{}).
			Where("boq_item_id = ?", item.ID).
			Count(&lineCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Metraj kontrolü yapılamadı")
		}
		if lineCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu poza bağlı metraj kayıtları var, silinemez")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		if err := database.DB.Model(&item).Update("is_deleted", true).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Poz silinemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &item.ProjectID,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "boq_item",
			EntityID:    item.ID,
			Action:      models.AuditActionDelete,
			Description: "Poz silindi: " + item.PozNo,
			Before:      item,
		})

		return c.JSON(fiber.Map{"message": "Poz silindi"})
	}
}

type MeasurementSummaryRow struct {
	BoqItemID        uint    `json:"boq_item_id"`
	PozNo            string  `json:"poz_no"`
	Description      string  `json:"description"`
	Unit             string  `json:"unit"`
	ContractQuantity float64 `json:"contract_quantity"`
	UnitPrice        float64 `json:"unit_price"`
	MeasuredQuantity float64 `json:"measured_quantity"` // reddedilenler hariç kümülatif
	MeasuredAmount   float64 `json:"measured_amount"`
	Remaining        float64 `json:"remaining"`
	CompletionRate   float64 `json:"completion_rate"` // yüzde
	ExceedsContract  bool    `json:"exceeds_contract"`
}

// GET /api/projects/:id/measurement-summary
// Poz bazında sözleşme miktarı ile gerçekleşen metrajın karşılaştırması.
func MeasurementSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz proje ID")
		}

		var items []models.BoqItem
		if err := database.DB.
			Where("project_id = ? AND is_deleted = false", projectID).
			Order("poz_no ASC").
			Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pozlar listelenemedi")
		}

		type sumRow struct {
			BoqItemID uint
			Total     float64
		}
		var sums []sumRow
		if err := database.DB.Model(&models.MeasurementLine{}).
			Select("measurement_lines.boq_item_id AS boq_item_id, COALESCE(SUM(measurement_lines.measured_quantity), 0) AS total").
			Joins("JOIN progress_payments ON progress_payments.id = measurement_lines.payment_id").
			Where("measurement_lines.project_id = ? AND progress_payments.status <> ?", projectID, models.PaymentRejected).
			Group("measurement_lines.boq_item_id").
			Scan(&sums).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Metraj toplamları hesaplanamadı")
		}

		measured := make(map[uint]float64, len(sums))
		for _, s := range sums {
			measured[s.BoqItemID] = s.Total
		}

		rows := make([]MeasurementSummaryRow, 0, len(items))
		for _, item := range items {
			qty := measured[item.ID]
			row := MeasurementSummaryRow{
				BoqItemID:        item.ID,
				PozNo:            item.PozNo,
				Description:      item.Description,
				Unit:             item.Unit,
				ContractQuantity: item.Quantity,
				UnitPrice:        item.UnitPrice,
				MeasuredQuantity: qty,
				MeasuredAmount:   qty * item.UnitPrice,
				Remaining:        item.Quantity - qty,
				ExceedsContract:  qty > item.Quantity,
			}
			if item.Quantity > 0 {
				row.CompletionRate = qty / item.Quantity * 100
			}
			rows = append(rows, row)
		}

		return c.JSON(rows)
	}
}
