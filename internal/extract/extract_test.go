package extract

import (
	"testing"

	"github.com/divantrade/masareef/internal/domain"
	"github.com/divantrade/masareef/internal/textnorm"
)

func TestRouteText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Route
	}{
		{name: "custody keyword", text: "حولت لسارة 500 ريال عهدة", want: RouteRule},
		{name: "custody spelling variant", text: "عهده 2000 جنيه", want: RouteRule},
		{name: "english keyword upper-case", text: "CUSTODY transfer 100", want: RouteRule},
		{name: "plain expense goes to oracle", text: "صرفت 50 جنيه على الغداء", want: RouteOracle},
		{name: "no amount still routes by keyword only", text: "ازيك عامل ايه", want: RouteOracle},
		{name: "empty", text: "", want: RouteOracle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RouteText(tt.text); got != tt.want {
				t.Errorf("RouteText(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractExchangePattern(t *testing.T) {
	e := DefaultCustodyExtractor()
	raw := "حولت لسارة 500 ريال ما يعادل 6000 جنيه عهدة"

	c, fail := e.Extract(raw, textnorm.Normalize(raw))
	if fail != nil {
		t.Fatalf("unexpected failure: %v", fail)
	}
	if c.Kind != domain.KindCustodyDeposit {
		t.Errorf("kind = %q, want %q", c.Kind, domain.KindCustodyDeposit)
	}
	if c.Amount != 500 || c.Currency != "SAR" {
		t.Errorf("amount = %v %s, want 500 SAR", c.Amount, c.Currency)
	}
	if c.AmountReceived == nil || *c.AmountReceived != 6000 || c.CurrencyReceived != "EGP" {
		t.Errorf("received = %v %s, want 6000 EGP", c.AmountReceived, c.CurrencyReceived)
	}
	if c.ExchangeRate == nil || *c.ExchangeRate != 12.00 {
		t.Errorf("exchange rate = %v, want 12.00", c.ExchangeRate)
	}
	if c.CounterpartyCode != "SARA" {
		t.Errorf("custodian = %q, want SARA", c.CounterpartyCode)
	}
}

func TestExtractPlainAmount(t *testing.T) {
	e := DefaultCustodyExtractor()

	tests := []struct {
		name         string
		raw          string
		wantAmount   float64
		wantCurrency string
		wantCode     string
	}{
		{
			name:         "arabic digits local currency default custodian",
			raw:          "عهدة ٢٠٠٠ جنيه",
			wantAmount:   2000,
			wantCurrency: "EGP",
			wantCode:     "SARA",
		},
		{
			name:         "riyal keyword",
			raw:          "عهدة 300 ريال لسارة",
			wantAmount:   300,
			wantCurrency: "SAR",
			wantCode:     "SARA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fail := e.Extract(tt.raw, textnorm.Normalize(tt.raw))
			if fail != nil {
				t.Fatalf("unexpected failure: %v", fail)
			}
			if c.Amount != tt.wantAmount {
				t.Errorf("amount = %v, want %v", c.Amount, tt.wantAmount)
			}
			if c.Currency != tt.wantCurrency {
				t.Errorf("currency = %q, want %q", c.Currency, tt.wantCurrency)
			}
			if c.CounterpartyCode != tt.wantCode {
				t.Errorf("custodian = %q, want %q", c.CounterpartyCode, tt.wantCode)
			}
		})
	}
}

func TestExtractSecondaryLinkedAmount(t *testing.T) {
	e := DefaultCustodyExtractor()
	raw := "عهدة 400 ريال وصل 4800 جنيه"

	c, fail := e.Extract(raw, textnorm.Normalize(raw))
	if fail != nil {
		t.Fatalf("unexpected failure: %v", fail)
	}
	if c.Amount != 400 {
		t.Fatalf("amount = %v, want 400", c.Amount)
	}
	if c.AmountReceived == nil || *c.AmountReceived != 4800 {
		t.Fatalf("received = %v, want 4800", c.AmountReceived)
	}
	if c.ExchangeRate == nil || *c.ExchangeRate != 12.00 {
		t.Errorf("exchange rate = %v, want 12.00", c.ExchangeRate)
	}
}

func TestExtractNoAmount(t *testing.T) {
	e := DefaultCustodyExtractor()

	for _, raw := range []string{"عهدة لسارة", "عهدة 0 جنيه"} {
		c, fail := e.Extract(raw, textnorm.Normalize(raw))
		if fail == nil {
			t.Fatalf("Extract(%q) = %+v, want failure", raw, c)
		}
		if fail.Reason != ReasonNoAmount {
			t.Errorf("reason = %q, want %q", fail.Reason, ReasonNoAmount)
		}
		if fail.UserMessage == "" {
			t.Error("expected a user-facing message with example phrasings")
		}
	}
}

func TestDeriveRateRounding(t *testing.T) {
	tests := []struct {
		amount, received, want float64
	}{
		{500, 6000, 12.00},
		{3, 10, 3.33},
		{7, 100, 14.29},
	}
	for _, tt := range tests {
		if got := deriveRate(tt.amount, tt.received); got != tt.want {
			t.Errorf("deriveRate(%v, %v) = %v, want %v", tt.amount, tt.received, got, tt.want)
		}
	}
}
