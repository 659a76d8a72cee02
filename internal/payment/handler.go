package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hakedis-backend/internal/audit"
	"hakedis-backend/internal/auth"
	"hakedis-backend/internal/database"
	"hakedis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentResponse struct {
	ID        uint   `json:"id"`
	ProjectID uint   `json:"project_id"`
	PaymentNo int    `json:"payment_no"`
	Title     string `json:"title"`

	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Status      string `json:"status"`

	GrossAmount       float64 `json:"gross_amount"`
	VatAmount         float64 `json:"vat_amount"`
	WithholdingAmount float64 `json:"withholding_amount"`
	StampTaxAmount    float64 `json:"stamp_tax_amount"`
	AdvanceDeduction  float64 `json:"advance_deduction"`
	OtherDeductions   float64 `json:"other_deductions"`
	NetAmount         float64 `json:"net_amount"`

	AdvanceOverride *float64 `json:"advance_override"`
	Version         uint     `json:"version"`

	SubmittedAt *string `json:"submitted_at"`
	ApprovedAt  *string `json:"approved_at"`
	PaidAt      *string `json:"paid_at"`

	PaidAmount       float64 `json:"paid_amount"`
	PaymentReference string  `json:"payment_reference"`
	RejectReason     string  `json:"reject_reason"`

	CreatedAt string `json:"created_at"`
}

type CreatePaymentRequest struct {
	Title       string `json:"title"`
	PeriodStart string `json:"period_start"` // "2025-01-01"
	PeriodEnd   string `json:"period_end"`
}

type UpdatePaymentRequest struct {
	Title           *string  `json:"title"`
	PeriodStart     *string  `json:"period_start"`
	PeriodEnd       *string  `json:"period_end"`
	OtherDeductions *float64 `json:"other_deductions"`
	AdvanceOverride *float64 `json:"advance_override"`
	ClearOverride   bool     `json:"clear_override"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type PayRequest struct {
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"` // boşsa bugün
	Reference string  `json:"reference"`
}

type HistoryResponse struct {
	ID         uint   `json:"id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    uint   `json:"actor_id"`
	ActorName  string `json:"actor_name"`
	Reason     string `json:"reason"`
	CreatedAt  string `json:"created_at"`
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02 15:04:05")
	return &s
}

func toPaymentResponse(p models.ProgressPayment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		ProjectID:         p.ProjectID,
		PaymentNo:         p.PaymentNo,
		Title:             p.Title,
		PeriodStart:       p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:         p.PeriodEnd.Format("2006-01-02"),
		Status:            string(p.Status),
		GrossAmount:       p.GrossAmount,
		VatAmount:         p.VatAmount,
		WithholdingAmount: p.WithholdingAmount,
		StampTaxAmount:    p.StampTaxAmount,
		AdvanceDeduction:  p.AdvanceDeduction,
		OtherDeductions:   p.OtherDeductions,
		NetAmount:         p.NetAmount,
		AdvanceOverride:   p.AdvanceOverride,
		Version:           p.Version,
		SubmittedAt:       fmtTimePtr(p.SubmittedAt),
		ApprovedAt:        fmtTimePtr(p.ApprovedAt),
		PaidAt:            fmtTimePtr(p.PaidAt),
		PaidAmount:        p.PaidAmount,
		PaymentReference:  p.PaymentReference,
		RejectReason:      p.RejectReason,
		CreatedAt:         p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// mapError - domain hatalarını HTTP koduna çevirir. fiber.Error olduğu
// gibi geçer, tanınmayan hata 500'dür.
func mapError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return err
	}

	var te *TransitionError
	if errors.As(err, &te) {
		return fiber.NewError(fiber.StatusConflict, te.Error())
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Hakediş bulunamadı")
	case errors.Is(err, ErrNoMeasurements), errors.Is(err, ErrReasonRequired):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPeriodNotDraft), errors.Is(err, ErrStaleVersion):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrConfigMissing):
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
}

// POST /api/projects/:id/payments (admin, engineer)
// Hakediş no projede bir önceki numaranın devamıdır; reddedilen dönemin
// numarası geri kullanılmaz.
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz proje ID")
		}

		var project models.Project
		if err := database.DB.First(&project, "id = ?", projectID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proje bulunamadı")
		}

		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		start, err := time.Parse("2006-01-02", body.PeriodStart)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "period_start formatı 'YYYY-MM-DD' olmalı")
		}
		end, err := time.Parse("2006-01-02", body.PeriodEnd)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "period_end formatı 'YYYY-MM-DD' olmalı")
		}
		if end.Before(start) {
			return fiber.NewError(fiber.StatusBadRequest, "Dönem bitişi başlangıçtan önce olamaz")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var created models.ProgressPayment
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var maxNo int
			if err := tx.Model(&models.ProgressPayment{}).
				Where("project_id = ?", projectID).
				Select("COALESCE(MAX(payment_no), 0)").
				Scan(&maxNo).Error; err != nil {
				return err
			}

			title := strings.TrimSpace(body.Title)
			if title == "" {
				title = fmt.Sprintf("%d. Hakediş", maxNo+1)
			}

			created = models.ProgressPayment{
				ProjectID:   uint(projectID),
				PaymentNo:   maxNo + 1,
				Title:       title,
				PeriodStart: start,
				PeriodEnd:   end,
				Status:      models.PaymentDraft,
				CreatedBy:   user.ID,
			}
			return tx.Create(&created).Error
		})
		if err != nil {
			return mapError(err)
		}

		pid := uint(projectID)
		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &pid,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "progress_payment",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: "Hakediş dönemi açıldı: " + created.Title,
			After:       created,
		})

		return c.Status(fiber.StatusCreated).JSON(toPaymentResponse(created))
	}
}

// GET /api/projects/:id/payments
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz proje ID")
		}

		dbq := database.DB.Where("project_id = ?", projectID)
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var payments []models.ProgressPayment
		if err := dbq.Order("payment_no DESC").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hakedişler listelenemedi")
		}

		res := make([]PaymentResponse, 0, len(payments))
		for _, p := range payments {
			res = append(res, toPaymentResponse(p))
		}
		return c.JSON(res)
	}
}

type PaymentLineDetail struct {
	ID                 uint    `json:"id"`
	BoqItemID          uint    `json:"boq_item_id"`
	PozNo              string  `json:"poz_no"`
	Description        string  `json:"description"`
	Unit               string  `json:"unit"`
	PreviousQuantity   float64 `json:"previous_quantity"`
	MeasuredQuantity   float64 `json:"measured_quantity"`
	CumulativeQuantity float64 `json:"cumulative_quantity"`
	UnitPrice          float64 `json:"unit_price"`
	LineTotal          float64 `json:"line_total"`
	ContractQuantity   float64 `json:"contract_quantity"`
	ExceedsContract    bool    `json:"exceeds_contract"`
	Notes              string  `json:"notes"`
}

type PaymentDetailResponse struct {
	PaymentResponse
	Lines []PaymentLineDetail `json:"lines"`
}

// GET /api/payments/:id
// Satırlar sözleşme miktarıyla karşılaştırmalı döner; aşım engel değil,
// inceleme için işarettir.
func GetPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.ProgressPayment
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Hakediş bulunamadı")
		}

		var lines []models.MeasurementLine
		if err := database.DB.
			Where("payment_id = ?", p.ID).
			Order("poz_no ASC").
			Find(&lines).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Metraj satırları okunamadı")
		}

		itemIDs := make([]uint, 0, len(lines))
		for _, l := range lines {
			itemIDs = append(itemIDs, l.BoqItemID)
		}

		contract := make(map[uint]float64, len(itemIDs))
		if len(itemIDs) > 0 {
			var items []models.BoqItem
			if err := database.DB.Where("id IN ?", itemIDs).Find(&items).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Pozlar okunamadı")
			}
			for _, item := range items {
				contract[item.ID] = item.Quantity
			}
		}

		detail := PaymentDetailResponse{
			PaymentResponse: toPaymentResponse(p),
			Lines:           make([]PaymentLineDetail, 0, len(lines)),
		}
		for _, l := range lines {
			cq := contract[l.BoqItemID]
			detail.Lines = append(detail.Lines, PaymentLineDetail{
				ID:                 l.ID,
				BoqItemID:          l.BoqItemID,
				PozNo:              l.PozNo,
				Description:        l.Description,
				Unit:               l.Unit,
				PreviousQuantity:   l.PreviousQuantity,
				MeasuredQuantity:   l.MeasuredQuantity,
				CumulativeQuantity: l.CumulativeQuantity,
				UnitPrice:          l.UnitPrice,
				LineTotal:          l.LineTotal,
				ContractQuantity:   cq,
				ExceedsContract:    l.CumulativeQuantity > cq,
				Notes:              l.Notes,
			})
		}

		return c.JSON(detail)
	}
}

// PUT /api/payments/:id (admin, engineer)
// Taslak dönemin başlık/dönem/kesinti alanları; tutarlar hemen yeniden
// hesaplanır.
func UpdatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var before, after models.ProgressPayment
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var p models.ProgressPayment
			if err := tx.First(&p, "id = ?", c.Params("id")).Error; err != nil {
				return err
			}
			before = p

			if p.Status != models.PaymentDraft {
				return ErrPeriodNotDraft
			}

			if body.Title != nil {
				title := strings.TrimSpace(*body.Title)
				if title == "" {
					return fiber.NewError(fiber.StatusBadRequest, "Başlık boş olamaz")
				}
				p.Title = title
			}
			if body.PeriodStart != nil {
				d, err := time.Parse("2006-01-02", *body.PeriodStart)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "period_start formatı 'YYYY-MM-DD' olmalı")
				}
				p.PeriodStart = d
			}
			if body.PeriodEnd != nil {
				d, err := time.Parse("2006-01-02", *body.PeriodEnd)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "period_end formatı 'YYYY-MM-DD' olmalı")
				}
				p.PeriodEnd = d
			}
			if p.PeriodEnd.Before(p.PeriodStart) {
				return fiber.NewError(fiber.StatusBadRequest, "Dönem bitişi başlangıçtan önce olamaz")
			}
			if body.OtherDeductions != nil {
				if *body.OtherDeductions < 0 {
					return fiber.NewError(fiber.StatusBadRequest, "Diğer kesintiler negatif olamaz")
				}
				p.OtherDeductions = *body.OtherDeductions
			}
			if body.ClearOverride {
				p.AdvanceOverride = nil
			} else if body.AdvanceOverride != nil {
				if *body.AdvanceOverride < 0 {
					return fiber.NewError(fiber.StatusBadRequest, "Avans kesintisi negatif olamaz")
				}
				p.AdvanceOverride = body.AdvanceOverride
			}

			if err := tx.Save(&p).Error; err != nil {
				return err
			}

			if err := RecalculateTx(tx, &p); err != nil {
				return err
			}

			after = p
			return nil
		})
		if err != nil {
			return mapError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			ProjectID:   &after.ProjectID,
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "progress_payment",
			EntityID:    after.ID,
			Action:      models.AuditActionUpdate,
			Description: "Hakediş güncellendi: " + after.Title,
			Before:      before,
			After:       after,
		})

		return c.JSON(toPaymentResponse(after))
	}
}

// POST /api/payments/:id/recalculate (admin, engineer)
func RecalculateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz hakediş ID")
		}

		p, err := Recalculate(database.DB, uint(id))
		if err != nil {
			return mapError(err)
		}

		return c.JSON(toPaymentResponse(*p))
	}
}

// POST /api/payments/:id/submit (admin, engineer)
func SubmitHandler() fiber.Handler {
	return transitionHandler(func(id uint, actor Actor, c *fiber.Ctx) (*models.ProgressPayment, error) {
		return Submit(database.DB, id, actor)
	})
}

// POST /api/payments/:id/review (admin, reviewer)
func ReviewHandler() fiber.Handler {
	return transitionHandler(func(id uint, actor Actor, c *fiber.Ctx) (*models.ProgressPayment, error) {
		return Review(database.DB, id, actor)
	})
}

// POST /api/payments/:id/approve (admin, approver)
func ApproveHandler() fiber.Handler {
	return transitionHandler(func(id uint, actor Actor, c *fiber.Ctx) (*models.ProgressPayment, error) {
		return Approve(database.DB, id, actor)
	})
}

// POST /api/payments/:id/reject (admin, reviewer, approver)
func RejectHandler() fiber.Handler {
	return transitionHandler(func(id uint, actor Actor, c *fiber.Ctx) (*models.ProgressPayment, error) {
		var body RejectRequest
		if err := c.BodyParser(&body); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		return Reject(database.DB, id, actor, strings.TrimSpace(body.Reason))
	})
}

// POST /api/payments/:id/pay (admin, approver)
func PayHandler() fiber.Handler {
	return transitionHandler(func(id uint, actor Actor, c *fiber.Ctx) (*models.ProgressPayment, error) {
		var body PayRequest
		if err := c.BodyParser(&body); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Amount <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Ödeme tutarı pozitif olmalı")
		}

		details := PaymentDetails{Amount: body.Amount}
		if body.Date != "" {
			d, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, "date formatı 'YYYY-MM-DD' olmalı")
			}
			details.Date = d
		}
		details.Reference = strings.TrimSpace(body.Reference)
		if details.Reference == "" {
			// banka referansı gelmediyse takip için dahili referans üret
			details.Reference = uuid.NewString()
		}

		return RecordPayment(database.DB, id, actor, details)
	})
}

func transitionHandler(run func(id uint, actor Actor, c *fiber.Ctx) (*models.ProgressPayment, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz hakediş ID")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		p, err := run(uint(id), Actor{ID: user.ID, Name: user.Name}, c)
		if err != nil {
			return mapError(err)
		}

		return c.JSON(toPaymentResponse(*p))
	}
}

// GET /api/payments/:id/history
func HistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		paymentID := c.Params("id")

		var p models.ProgressPayment
		if err := database.DB.First(&p, "id = ?", paymentID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Hakediş bulunamadı")
		}

		var hist []models.PaymentHistory
		if err := database.DB.
			Where("payment_id = ?", p.ID).
			Order("created_at ASC").
			Find(&hist).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geçmiş okunamadı")
		}

		res := make([]HistoryResponse, 0, len(hist))
		for _, h := range hist {
			res = append(res, HistoryResponse{
				ID:         h.ID,
				FromStatus: string(h.FromStatus),
				ToStatus:   string(h.ToStatus),
				ActorID:    h.ActorID,
				ActorName:  h.ActorName,
				Reason:     h.Reason,
				CreatedAt:  h.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
