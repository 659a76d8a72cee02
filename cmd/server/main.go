package main

import (
	"log"
	"strings"

	"hakedis-backend/internal/audit"
	"hakedis-backend/internal/auth"
	"hakedis-backend/internal/boq"
	"hakedis-backend/internal/config"
	"hakedis-backend/internal/database"
	"hakedis-backend/internal/measurement"
	"hakedis-backend/internal/models"
	"hakedis-backend/internal/payment"
	"hakedis-backend/internal/project"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/users", auth.CreateUserHandler())

	// Proje yönetimi
	protected.Post("/projects", auth.RequireRole(models.RoleAdmin), project.CreateProjectHandler())
	protected.Get("/projects", project.ListProjectsHandler())
	protected.Get("/projects/:id", project.GetProjectHandler())
	protected.Put("/projects/:id", auth.RequireRole(models.RoleAdmin), project.UpdateProjectHandler())

	// Hakediş ayarları
	protected.Get("/projects/:id/payment-config", payment.GetConfigHandler())
	protected.Put("/projects/:id/payment-config", auth.RequireRole(models.RoleAdmin), payment.UpdateConfigHandler())

	// Poz (BOQ) yönetimi
	protected.Post("/projects/:id/boq-items",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), boq.CreateBoqItemHandler())
	protected.Get("/projects/:id/boq-items", boq.ListBoqItemsHandler())
	protected.Put("/boq-items/:id",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), boq.UpdateBoqItemHandler())
	protected.Delete("/boq-items/:id", auth.RequireRole(models.RoleAdmin), boq.DeleteBoqItemHandler())

	// Proje geneli metraj özeti
	protected.Get("/projects/:id/measurement-summary", boq.MeasurementSummaryHandler())

	// Hakediş dönemleri
	protected.Post("/projects/:id/payments",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), payment.CreatePaymentHandler())
	protected.Get("/projects/:id/payments", payment.ListPaymentsHandler())
	protected.Get("/payments/:id", payment.GetPaymentHandler())
	protected.Put("/payments/:id",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), payment.UpdatePaymentHandler())
	protected.Post("/payments/:id/recalculate",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), payment.RecalculateHandler())
	protected.Get("/payments/:id/history", payment.HistoryHandler())

	// Durum geçişleri
	protected.Post("/payments/:id/submit",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), payment.SubmitHandler())
	protected.Post("/payments/:id/review",
		auth.RequireRole(models.RoleAdmin, models.RoleReviewer), payment.ReviewHandler())
	protected.Post("/payments/:id/approve",
		auth.RequireRole(models.RoleAdmin, models.RoleApprover), payment.ApproveHandler())
	protected.Post("/payments/:id/reject",
		auth.RequireRole(models.RoleAdmin, models.RoleReviewer, models.RoleApprover), payment.RejectHandler())
	protected.Post("/payments/:id/pay",
		auth.RequireRole(models.RoleAdmin, models.RoleApprover), payment.PayHandler())

	// Metraj satırları
	protected.Post("/payments/:id/measurements",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), measurement.CreateLineHandler())
	protected.Post("/payments/:id/measurements/bulk",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), measurement.BulkUpsertHandler())
	protected.Get("/payments/:id/measurements", measurement.ListLinesHandler())
	protected.Put("/measurements/:id",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), measurement.UpdateLineHandler())
	protected.Delete("/measurements/:id",
		auth.RequireRole(models.RoleAdmin, models.RoleEngineer), measurement.DeleteLineHandler())

	// Audit logs
	protected.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
