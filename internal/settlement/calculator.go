// Package settlement hakediş tutar hesaplamasını saf fonksiyon olarak tutar:
// girdi metraj satırları + proje ayarları, çıktı tutar dökümü. Veritabanına
// dokunmaz; aynı hesap birden fazla dönem/proje için yan etkisiz çağrılabilir.
package settlement

import "hakedis-backend/internal/models"

// Line - hesaplamanın gördüğü kadarıyla bir metraj satırı
type Line struct {
	MeasuredQuantity float64
	UnitPrice        float64
}

// Amount - satır tutarı
func (l Line) Amount() float64 {
	return l.MeasuredQuantity * l.UnitPrice
}

// Options - dönem üzerinde taşınan, ayarlardan gelmeyen girdiler
type Options struct {
	// Dolu ise avans kesintisi oran yerine bu sabit tutardan başlar
	AdvanceOverride *float64
	// Elle girilen dönem bazlı diğer kesintiler toplamı
	OtherDeductions float64
	// Önceki dönemlerde kesilmiş toplam avans; kesinti tavanı için
	AdvanceRecovered float64
}

// Breakdown - bir hakediş döneminin tam tutar dökümü
type Breakdown struct {
	Gross             float64
	VatAmount         float64
	WithholdingAmount float64
	StampTaxAmount    float64
	AdvanceDeduction  float64
	OtherDeductions   float64
	Net               float64
}

// Calculate - sabit boru hattı: her kalem brütten hesaplanır, birbirinin
// sonucu üzerinden katlanmaz. KDV eklenir; stopaj, damga vergisi ve avans
// kesintisi düşülür. Net negatif çıkabilir (örn. düşük ilerlemeli dönemde
// avans kesintisi brütü aşarsa); kırpılmaz, onay akışı yakalar.
func Calculate(lines []Line, cfg models.PaymentConfig, opts Options) Breakdown {
	var gross float64
	for _, l := range lines {
		gross += l.Amount()
	}

	b := Breakdown{
		Gross:             gross,
		VatAmount:         gross * cfg.VatRate / 100,
		WithholdingAmount: gross * cfg.WithholdingRate / 100,
		StampTaxAmount:    gross * cfg.StampTaxRate / 100,
		OtherDeductions:   opts.OtherDeductions,
	}

	b.AdvanceDeduction = advanceDeduction(gross, cfg, opts)

	b.Net = b.Gross + b.VatAmount - b.WithholdingAmount - b.StampTaxAmount -
		b.AdvanceDeduction - b.OtherDeductions

	return b
}

// advanceDeduction - dönem avans kesintisi: sabit tutar (override) ya da
// brüt üzerinden oran. Toplam geri ödeme hiçbir zaman verilen avansı aşamaz.
func advanceDeduction(gross float64, cfg models.PaymentConfig, opts Options) float64 {
	var raw float64
	if opts.AdvanceOverride != nil {
		raw = *opts.AdvanceOverride
	} else {
		raw = gross * cfg.AdvanceDeductionRate / 100
	}
	if raw <= 0 {
		return 0
	}

	remaining := cfg.AdvanceAmount - opts.AdvanceRecovered
	if remaining <= 0 {
		return 0
	}
	if raw > remaining {
		return remaining
	}
	return raw
}
