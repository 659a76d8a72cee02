package payment

import (
	"testing"

	"hakedis-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	type move struct {
		from, to models.PaymentStatus
	}

	legal := []move{
		{models.PaymentDraft, models.PaymentPendingReview},
		{models.PaymentPendingReview, models.PaymentPendingApproval},
		{models.PaymentPendingReview, models.PaymentRejected},
		{models.PaymentPendingApproval, models.PaymentApproved},
		{models.PaymentPendingApproval, models.PaymentRejected},
		{models.PaymentApproved, models.PaymentPaid},
	}
	for _, m := range legal {
		assert.True(t, CanTransition(m.from, m.to), "%s -> %s serbest olmalı", m.from, m.to)
	}

	all := []models.PaymentStatus{
		models.PaymentDraft,
		models.PaymentPendingReview,
		models.PaymentPendingApproval,
		models.PaymentApproved,
		models.PaymentRejected,
		models.PaymentPaid,
	}

	legalSet := make(map[move]bool, len(legal))
	for _, m := range legal {
		legalSet[m] = true
	}

	// tabloda olmayan her ikili yasak
	for _, from := range all {
		for _, to := range all {
			if legalSet[move{from, to}] {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s yasak olmalı", from, to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []models.PaymentStatus{
		models.PaymentDraft,
		models.PaymentPendingReview,
		models.PaymentPendingApproval,
		models.PaymentApproved,
		models.PaymentRejected,
		models.PaymentPaid,
	}

	for _, to := range all {
		assert.False(t, CanTransition(models.PaymentPaid, to))
		assert.False(t, CanTransition(models.PaymentRejected, to))
	}
}

func TestDraftOnlyReachesPendingReview(t *testing.T) {
	assert.True(t, CanTransition(models.PaymentDraft, models.PaymentPendingReview))
	assert.False(t, CanTransition(models.PaymentDraft, models.PaymentApproved))
	assert.False(t, CanTransition(models.PaymentDraft, models.PaymentPaid))
	assert.False(t, CanTransition(models.PaymentDraft, models.PaymentRejected))
}

func TestSubmitRequiresAtLeastOneLine(t *testing.T) {
	// boş taslak incelemeye gönderilemez, dönem draft'ta kalır
	assert.ErrorIs(t, submitGuard(0), ErrNoMeasurements)
	assert.NoError(t, submitGuard(1))
	assert.NoError(t, submitGuard(12))
}

func TestRejectRequiresReason(t *testing.T) {
	// gerekçe kontrolü veritabanına inmeden yapılır
	p, err := Reject(nil, 1, Actor{ID: 1, Name: "Kontrol"}, "")

	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrReasonRequired)
}

func TestTransitionErrorMessage(t *testing.T) {
	err := &TransitionError{From: models.PaymentPaid, To: models.PaymentDraft}
	assert.Contains(t, err.Error(), "paid")
	assert.Contains(t, err.Error(), "draft")
}
