package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/divantrade/masareef/internal/domain"
)

const (
	currencySAR = "SAR"
	currencyEGP = "EGP"
)

var (
	// exchangeRe captures "amount₁ <SAR unit> ... يعادل/وصل amount₂".
	// "ما يعادل" matches through its يعادل suffix.
	exchangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ريال|ر\.س)\D*?(?:يعادل|وصل)\D*?(\d+(?:\.\d+)?)`)

	// numberRe finds the first numeric token.
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

	// linkedAmountRe captures a second amount after a linking keyword.
	linkedAmountRe = regexp.MustCompile(`(?:يعادل|وصل)\D*?(\d+(?:\.\d+)?)`)
)

// CustodianPattern maps a fixed name-variant pattern to a custodian code.
type CustodianPattern struct {
	Code    string
	Pattern *regexp.Regexp
}

// CustodyExtractor is the deterministic parser for custody deposit messages.
// It never calls out; amounts come from an ordered pattern list where the
// exchange pattern always takes priority over the plain-amount pattern.
type CustodyExtractor struct {
	custodians       []CustodianPattern
	defaultCustodian string
	patterns         []patternMatcher
}

// patternMatcher is one tagged amount pattern. Matchers run in priority
// order; the first one that matches fills the candidate's amount fields.
type patternMatcher struct {
	tag   string
	apply func(e *CustodyExtractor, rawText, normText string, c *domain.TransactionCandidate) bool
}

func NewCustodyExtractor(custodians []CustodianPattern, defaultCustodian string) *CustodyExtractor {
	e := &CustodyExtractor{
		custodians:       custodians,
		defaultCustodian: defaultCustodian,
	}
	e.patterns = []patternMatcher{
		{tag: "exchange", apply: (*CustodyExtractor).applyExchange},
		{tag: "plain-amount", apply: (*CustodyExtractor).applyPlainAmount},
	}
	return e
}

// DefaultCustodyExtractor recognizes the household's custodian name variants
// and falls back to the primary custodian when no name is present.
func DefaultCustodyExtractor() *CustodyExtractor {
	return NewCustodyExtractor([]CustodianPattern{
		{Code: "SARA", Pattern: regexp.MustCompile(`سار[ةهى]`)},
	}, "SARA")
}

// Extract parses a custody deposit from a message already routed to the rule
// path. rawText keeps the original glyphs for currency-keyword checks;
// normText carries ASCII digits for the amount patterns.
func (e *CustodyExtractor) Extract(rawText, normText string) (*domain.TransactionCandidate, *Failure) {
	candidate := &domain.TransactionCandidate{
		Kind:        domain.KindCustodyDeposit,
		Category:    "عهدة",
		Description: strings.TrimSpace(rawText),
	}
	candidate.CounterpartyCode, candidate.CounterpartyRaw = e.custodian(rawText)

	matched := false
	for _, p := range e.patterns {
		if p.apply(e, rawText, normText, candidate) {
			matched = true
			break
		}
	}
	if !matched || candidate.Amount <= 0 {
		return nil, noAmountFailure()
	}
	return candidate, nil
}

// custodian tests the fixed name-variant patterns in order; the default
// custodian applies when no variant matches.
func (e *CustodyExtractor) custodian(rawText string) (code, raw string) {
	for _, cp := range e.custodians {
		if m := cp.Pattern.FindString(rawText); m != "" {
			return cp.Code, m
		}
	}
	return e.defaultCustodian, ""
}

func (e *CustodyExtractor) applyExchange(rawText, normText string, c *domain.TransactionCandidate) bool {
	m := exchangeRe.FindStringSubmatch(normText)
	if m == nil {
		return false
	}
	amount, err1 := strconv.ParseFloat(m[1], 64)
	received, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || amount <= 0 {
		return false
	}

	c.Amount = amount
	c.Currency = currencySAR
	c.AmountReceived = &received
	c.CurrencyReceived = currencyEGP
	rate := deriveRate(amount, received)
	c.ExchangeRate = &rate
	return true
}

func (e *CustodyExtractor) applyPlainAmount(rawText, normText string, c *domain.TransactionCandidate) bool {
	loc := numberRe.FindStringIndex(normText)
	if loc == nil {
		return false
	}
	amount, err := strconv.ParseFloat(normText[loc[0]:loc[1]], 64)
	if err != nil {
		return false
	}

	c.Amount = amount
	// Currency keyword check runs on the raw, pre-normalization text;
	// custody deposits default to the local currency.
	if strings.Contains(rawText, "ريال") || strings.Contains(strings.ToLower(rawText), "sar") {
		c.Currency = currencySAR
	} else {
		c.Currency = currencyEGP
	}

	rest := normText[loc[1]:]
	if m := linkedAmountRe.FindStringSubmatch(rest); m != nil {
		if received, err := strconv.ParseFloat(m[1], 64); err == nil && received > 0 {
			c.AmountReceived = &received
			if c.Currency == currencyEGP {
				c.CurrencyReceived = currencySAR
			} else {
				c.CurrencyReceived = currencyEGP
			}
			rate := deriveRate(c.Amount, received)
			c.ExchangeRate = &rate
		}
	}
	return true
}

// deriveRate computes received/amount rounded to 2 decimal places, half-up.
func deriveRate(amount, received float64) float64 {
	return decimal.NewFromFloat(received).
		DivRound(decimal.NewFromFloat(amount), 2).
		InexactFloat64()
}
