package payment

import (
	"errors"
	"testing"

	"hakedis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"kayıt yok", gorm.ErrRecordNotFound, fiber.StatusNotFound},
		{"metraj yok", ErrNoMeasurements, fiber.StatusBadRequest},
		{"gerekçe yok", ErrReasonRequired, fiber.StatusBadRequest},
		{"taslak değil", ErrPeriodNotDraft, fiber.StatusConflict},
		{"bayat versiyon", ErrStaleVersion, fiber.StatusConflict},
		{"ayar yok", ErrConfigMissing, fiber.StatusInternalServerError},
		{"geçersiz geçiş", &TransitionError{From: models.PaymentPaid, To: models.PaymentDraft}, fiber.StatusConflict},
		{"bilinmeyen", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var fe *fiber.Error
			assert.ErrorAs(t, mapError(tc.err), &fe)
			assert.Equal(t, tc.code, fe.Code)
		})
	}
}

func TestMapErrorPassesFiberErrorsThrough(t *testing.T) {
	in := fiber.NewError(fiber.StatusConflict, "Sadece taslak hakedişe metraj girilebilir")
	assert.Equal(t, in, mapError(in))
}
