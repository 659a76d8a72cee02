package auth

import (
	"hakedis-backend/internal/database"
	"hakedis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CurrentUser - token'daki kullanıcıyı veritabanından çeker.
// Audit ve geçmiş kayıtları için denormalize isim burada alınır.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	userIDVal := c.Locals(CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return nil, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return &user, nil
}
