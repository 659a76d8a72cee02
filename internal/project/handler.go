package project

import (
	"strings"
	"time"

	"hakedis-backend/internal/auth"
	"hakedis-backend/internal/database"
	"hakedis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProjectResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Employer  string  `json:"employer"`
	Budget    float64 `json:"budget"`
	Status    string  `json:"status"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	CreatedAt string  `json:"created_at"`
}

type CreateProjectRequest struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Employer  string  `json:"employer"`
	Budget    float64 `json:"budget"`
	StartDate *string `json:"start_date"` // "2025-01-01"
	EndDate   *string `json:"end_date"`
}

type UpdateProjectRequest struct {
	Name     *string               `json:"name"`
	Employer *string               `json:"employer"`
	Budget   *float64              `json:"budget"`
	Status   *models.ProjectStatus `json:"status"`
}

func toResponse(p models.Project) ProjectResponse {
	r := ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		Employer:  p.Employer,
		Budget:    p.Budget,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if p.StartDate != nil {
		s := p.StartDate.Format("2006-01-02")
		r.StartDate = &s
	}
	if p.EndDate != nil {
		s := p.EndDate.Format("2006-01-02")
		r.EndDate = &s
	}
	return r
}

// POST /api/projects (admin)
// Projeyle birlikte varsayılan hakediş ayarı da açılır; kurulu projede
// ayarsız kalma durumu hiç oluşmaz.
func CreateProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProjectRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Code = strings.TrimSpace(body.Code)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Proje adı zorunlu")
		}
		if body.Code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Proje kodu zorunlu")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		proj := models.Project{
			Name:      body.Name,
			Code:      body.Code,
			Employer:  body.Employer,
			Budget:    body.Budget,
			Status:    models.ProjectActive,
			CreatedBy: user.ID,
		}

		if body.StartDate != nil {
			d, err := time.Parse("2006-01-02", *body.StartDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date formatı 'YYYY-MM-DD' olmalı")
			}
			proj.StartDate = &d
		}
		if body.EndDate != nil {
			d, err := time.Parse("2006-01-02", *body.EndDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date formatı 'YYYY-MM-DD' olmalı")
			}
			proj.EndDate = &d
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}

		if err := tx.Create(&proj).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Proje oluşturulamadı")
		}

		cfg := models.PaymentConfig{
			ProjectID:       proj.ID,
			VatRate:         models.DefaultVatRate,
			WithholdingRate: models.DefaultWithholding,
			StampTaxRate:    models.DefaultStampTaxRate,
			CreatedBy:       user.ID,
		}
		if err := tx.Create(&cfg).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Varsayılan hakediş ayarı oluşturulamadı")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction tamamlanamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(proj))
	}
}

// GET /api/projects
func ListProjectsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var projects []models.Project
		if err := database.DB.Order("created_at DESC").Find(&projects).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Projeler listelenemedi")
		}

		res := make([]ProjectResponse, 0, len(projects))
		for _, p := range projects {
			res = append(res, toResponse(p))
		}
		return c.JSON(res)
	}
}

// GET /api/projects/:id
func GetProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var proj models.Project
		if err := database.DB.First(&proj, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proje bulunamadı")
		}

		return c.JSON(toResponse(proj))
	}
}

// PUT /api/projects/:id (admin)
func UpdateProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var proj models.Project
		if err := database.DB.First(&proj, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proje bulunamadı")
		}

		var body UpdateProjectRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Proje adı boş olamaz")
			}
			proj.Name = name
		}
		if body.Employer != nil {
			proj.Employer = *body.Employer
		}
		if body.Budget != nil {
			proj.Budget = *body.Budget
		}
		if body.Status != nil {
			switch *body.Status {
			case models.ProjectActive, models.ProjectCompleted, models.ProjectSuspended:
				proj.Status = *body.Status
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz proje durumu")
			}
		}

		if err := database.DB.Save(&proj).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Proje güncellenemedi")
		}

		return c.JSON(toResponse(proj))
	}
}
