package settlement

import (
	"testing"

	"hakedis-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func defaultConfig() models.PaymentConfig {
	return models.PaymentConfig{
		VatRate:         20,
		WithholdingRate: 3,
		StampTaxRate:    0.948,
	}
}

func TestCalculateBasicPipeline(t *testing.T) {
	// brüt 10.000: KDV %20 = 2.000, stopaj %3 = 300, damga %0,948 = 94,80
	lines := []Line{
		{MeasuredQuantity: 100, UnitPrice: 60}, // 6.000
		{MeasuredQuantity: 80, UnitPrice: 50},  // 4.000
	}

	b := Calculate(lines, defaultConfig(), Options{})

	assert.InDelta(t, 10000, b.Gross, 0.001)
	assert.InDelta(t, 2000, b.VatAmount, 0.001)
	assert.InDelta(t, 300, b.WithholdingAmount, 0.001)
	assert.InDelta(t, 94.80, b.StampTaxAmount, 0.001)
	assert.InDelta(t, 0, b.AdvanceDeduction, 0.001)
	assert.InDelta(t, 11605.20, b.Net, 0.001)
}

func TestCalculateVatAddsDeductionsSubtract(t *testing.T) {
	// KDV işaret olarak kesintilerin tersidir: brüt üzerine eklenir
	lines := []Line{{MeasuredQuantity: 1, UnitPrice: 1000}}

	b := Calculate(lines, defaultConfig(), Options{})

	assert.Greater(t, b.Net, b.Gross-b.WithholdingAmount-b.StampTaxAmount)
	assert.InDelta(t, b.Gross+b.VatAmount-b.WithholdingAmount-b.StampTaxAmount, b.Net, 0.001)
}

func TestCalculateEmptyPeriod(t *testing.T) {
	b := Calculate(nil, defaultConfig(), Options{})

	assert.Zero(t, b.Gross)
	assert.Zero(t, b.VatAmount)
	assert.Zero(t, b.Net)
}

func TestCalculateGrossEqualsLineSum(t *testing.T) {
	lines := []Line{
		{MeasuredQuantity: 40, UnitPrice: 50},
		{MeasuredQuantity: 12.5, UnitPrice: 80},
		{MeasuredQuantity: 3.33, UnitPrice: 99.9},
	}

	var want float64
	for _, l := range lines {
		want += l.MeasuredQuantity * l.UnitPrice
	}

	b := Calculate(lines, defaultConfig(), Options{})
	assert.InDelta(t, want, b.Gross, 1e-9)
}

func TestAdvanceDeductionFromRate(t *testing.T) {
	cfg := defaultConfig()
	cfg.AdvanceAmount = 50000
	cfg.AdvanceDeductionRate = 10

	lines := []Line{{MeasuredQuantity: 100, UnitPrice: 100}} // brüt 10.000

	b := Calculate(lines, cfg, Options{})

	assert.InDelta(t, 1000, b.AdvanceDeduction, 0.001)
}

func TestAdvanceDeductionOverride(t *testing.T) {
	cfg := defaultConfig()
	cfg.AdvanceAmount = 50000
	cfg.AdvanceDeductionRate = 10

	override := 2500.0
	lines := []Line{{MeasuredQuantity: 100, UnitPrice: 100}}

	b := Calculate(lines, cfg, Options{AdvanceOverride: &override})

	assert.InDelta(t, 2500, b.AdvanceDeduction, 0.001)
}

func TestAdvanceDeductionCappedAtRemaining(t *testing.T) {
	cfg := defaultConfig()
	cfg.AdvanceAmount = 5000
	cfg.AdvanceDeductionRate = 10

	lines := []Line{{MeasuredQuantity: 100, UnitPrice: 100}} // oran kesintisi 1.000 olurdu

	// önceki dönemlerde 4.700 kesilmiş, sadece 300 kaldı
	b := Calculate(lines, cfg, Options{AdvanceRecovered: 4700})
	assert.InDelta(t, 300, b.AdvanceDeduction, 0.001)

	// avansın tamamı geri alınmışsa kesinti sıfır
	b = Calculate(lines, cfg, Options{AdvanceRecovered: 5000})
	assert.Zero(t, b.AdvanceDeduction)
}

func TestAdvanceDeductionNoConfiguredAdvance(t *testing.T) {
	// avans verilmemişse override bile kesinti üretmez
	cfg := defaultConfig()
	override := 1000.0

	lines := []Line{{MeasuredQuantity: 100, UnitPrice: 100}}
	b := Calculate(lines, cfg, Options{AdvanceOverride: &override})

	assert.Zero(t, b.AdvanceDeduction)
}

func TestNetCanGoNegative(t *testing.T) {
	// düşük ilerlemeli dönemde avans kesintisi brütü aşabilir; kırpılmaz
	cfg := defaultConfig()
	cfg.AdvanceAmount = 100000
	override := 5000.0

	lines := []Line{{MeasuredQuantity: 1, UnitPrice: 100}} // brüt 100

	b := Calculate(lines, cfg, Options{AdvanceOverride: &override})

	assert.InDelta(t, 5000, b.AdvanceDeduction, 0.001)
	assert.Less(t, b.Net, 0.0)
}

func TestOtherDeductions(t *testing.T) {
	lines := []Line{{MeasuredQuantity: 100, UnitPrice: 100}}

	b := Calculate(lines, defaultConfig(), Options{OtherDeductions: 750})

	assert.InDelta(t, 750, b.OtherDeductions, 0.001)
	assert.InDelta(t,
		b.Gross+b.VatAmount-b.WithholdingAmount-b.StampTaxAmount-750,
		b.Net, 0.001)
}

func TestCalculateIdempotent(t *testing.T) {
	// aynı girdiyle iki hesap bayt bayt aynı sonucu verir
	cfg := defaultConfig()
	cfg.AdvanceAmount = 20000
	cfg.AdvanceDeductionRate = 5

	lines := []Line{
		{MeasuredQuantity: 37.5, UnitPrice: 123.45},
		{MeasuredQuantity: 12.01, UnitPrice: 999.99},
	}
	opts := Options{OtherDeductions: 12.34, AdvanceRecovered: 500}

	first := Calculate(lines, cfg, opts)
	second := Calculate(lines, cfg, opts)

	assert.Equal(t, first, second)
}

func TestZeroRateConfig(t *testing.T) {
	// sıfır oranlı ayar: net == brüt
	lines := []Line{{MeasuredQuantity: 10, UnitPrice: 10}}

	b := Calculate(lines, models.PaymentConfig{}, Options{})

	assert.InDelta(t, 100, b.Gross, 0.001)
	assert.InDelta(t, 100, b.Net, 0.001)
}
