package measurement

import (
	"testing"

	"hakedis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestPhotosJSON(t *testing.T) {
	assert.Equal(t, "[]", photosJSON(nil))
	assert.Equal(t, "[]", photosJSON([]string{}))
	assert.Equal(t, `["a.jpg","b.jpg"]`, photosJSON([]string{"a.jpg", "b.jpg"}))
}

func TestValidateLineRequestRejectsNonPositiveQuantity(t *testing.T) {
	// sıfır da negatif de yazılmadan önce reddedilir
	cases := []float64{0, -1, -0.001}
	for _, q := range cases {
		err := validateLineRequest(CreateLineRequest{BoqItemID: 1, MeasuredQuantity: q})

		var fe *fiber.Error
		assert.ErrorAs(t, err, &fe, "miktar %v reddedilmeli", q)
		assert.Equal(t, fiber.StatusBadRequest, fe.Code)
	}

	assert.NoError(t, validateLineRequest(CreateLineRequest{BoqItemID: 1, MeasuredQuantity: 0.5}))
}

func TestValidateLineRequestRequiresBoqItem(t *testing.T) {
	err := validateLineRequest(CreateLineRequest{MeasuredQuantity: 10})

	var fe *fiber.Error
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
}

func TestEnsureDraftBlocksNonDraftPeriods(t *testing.T) {
	// onaylanmış (ya da başka kesinleşmiş) döneme satır dokunuşu yapılamaz
	nonDraft := []models.PaymentStatus{
		models.PaymentPendingReview,
		models.PaymentPendingApproval,
		models.PaymentApproved,
		models.PaymentRejected,
		models.PaymentPaid,
	}

	for _, st := range nonDraft {
		p := models.ProgressPayment{Status: st}
		err := ensureDraft(&p, "Sadece taslak hakedişe metraj girilebilir")

		var fe *fiber.Error
		assert.ErrorAs(t, err, &fe, "%s durumunda mutasyon reddedilmeli", st)
		assert.Equal(t, fiber.StatusConflict, fe.Code)
	}

	p := models.ProgressPayment{Status: models.PaymentDraft}
	assert.NoError(t, ensureDraft(&p, "Sadece taslak hakedişe metraj girilebilir"))
}

func TestRefreshCumulativeUsesCurrentPriors(t *testing.T) {
	// satır açıldığında önceki toplam 40'mış; sonra 1. dönemdeki metraj
	// 40 -> 50 düzeltilmiş. Saklanan snapshot değil güncel toplam esas alınır.
	line := models.MeasurementLine{
		BoqItemID:          10,
		PreviousQuantity:   40,
		MeasuredQuantity:   70,
		CumulativeQuantity: 110,
		UnitPrice:          50,
	}

	refreshCumulative(&line, map[uint]float64{10: 50})

	assert.InDelta(t, 50, line.PreviousQuantity, 1e-9)
	assert.InDelta(t, 120, line.CumulativeQuantity, 1e-9)
	assert.InDelta(t, 3500, line.LineTotal, 1e-9)
}

func TestRefreshCumulativeNoPriorPeriods(t *testing.T) {
	line := models.MeasurementLine{BoqItemID: 10, MeasuredQuantity: 40, UnitPrice: 50}

	refreshCumulative(&line, map[uint]float64{})

	assert.Zero(t, line.PreviousQuantity)
	assert.InDelta(t, 40, line.CumulativeQuantity, 1e-9)
	assert.InDelta(t, 2000, line.LineTotal, 1e-9)
}
