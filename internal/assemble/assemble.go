// Package assemble turns raw oracle output into canonical transaction
// candidates: bilingual field names collapse to one shape here and nowhere
// else, currency labels map through a fixed table, counterparties resolve
// against the contact registry and missing exchange rates are derived.
package assemble

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/divantrade/masareef/internal/contacts"
	"github.com/divantrade/masareef/internal/domain"
	"github.com/divantrade/masareef/internal/textnorm"
)

// fieldAliases maps each canonical field to the key vocabularies the oracle
// may answer in. Checked in order; the English key wins on a (never
// observed) duplicate.
var fieldAliases = map[string][]string{
	"type":            {"type", "نوع"},
	"amount":          {"amount", "مبلغ"},
	"currency":        {"currency", "عملة"},
	"category":        {"category", "تصنيف"},
	"contact":         {"contact", "جهة"},
	"description":     {"description", "وصف"},
	"amount_received": {"amount_received", "مبلغ_مستلم"},
	"exchange_rate":   {"exchange_rate", "سعر_الصرف"},
	"gold_weight":     {"gold_weight", "وزن_الذهب"},
	"gold_karat":      {"gold_karat", "عيار_الذهب"},
}

// currencyNames maps folded currency labels to ISO codes. Unrecognized
// labels default to the primary currency.
var currencyNames = map[string]string{
	"egp": "EGP", "جنيه": "EGP", "جنيه مصري": "EGP",
	"sar": "SAR", "ريال": "SAR", "ريال سعودي": "SAR", "رس": "SAR",
	"usd": "USD", "دولار": "USD", "دولار امريكي": "USD",
}

const primaryCurrency = "EGP"

// kindNames normalizes the oracle's type labels to the closed kind set.
var kindNames = map[string]domain.Kind{
	"income": domain.KindIncome, "دخل": domain.KindIncome,
	"expense": domain.KindExpense, "مصروف": domain.KindExpense, "مصاريف": domain.KindExpense,
	"transfer": domain.KindTransfer, "تحويل": domain.KindTransfer,
	"custody_deposit": domain.KindCustodyDeposit, "ايداع عهده": domain.KindCustodyDeposit, "عهده": domain.KindCustodyDeposit,
	"custody_withdrawal": domain.KindCustodyWithdrawal, "سحب عهده": domain.KindCustodyWithdrawal,
	"gold_purchase": domain.KindGoldPurchase, "شراء ذهب": domain.KindGoldPurchase,
	"loan_taken": domain.KindLoanTaken, "قرض": domain.KindLoanTaken,
	"loan_repaid": domain.KindLoanRepaid, "سداد قرض": domain.KindLoanRepaid,
}

// Assembler builds canonical candidates from extractor output.
type Assembler struct {
	resolver *contacts.Resolver
	log      zerolog.Logger
}

func New(resolver *contacts.Resolver, log zerolog.Logger) *Assembler {
	return &Assembler{resolver: resolver, log: log}
}

// AssembleOracle converts raw oracle transaction objects into candidates.
// Candidates failing the amount>0 invariant are dropped and counted, not
// silently ignored: the caller reports how many of the total were usable.
func (a *Assembler) AssembleOracle(ctx context.Context, raws []map[string]interface{}) (usable []domain.TransactionCandidate, dropped int) {
	for _, raw := range raws {
		c, ok := a.assembleOne(ctx, raw)
		if !ok {
			dropped++
			continue
		}
		usable = append(usable, c)
	}
	if dropped > 0 {
		a.log.Warn().Int("dropped", dropped).Int("total", len(raws)).Msg("candidates dropped during assembly")
	}
	return usable, dropped
}

func (a *Assembler) assembleOne(ctx context.Context, raw map[string]interface{}) (domain.TransactionCandidate, bool) {
	c := domain.TransactionCandidate{
		Kind:        normalizeKind(getString(raw, "type")),
		Amount:      getFloat(raw, "amount"),
		Currency:    normalizeCurrency(getString(raw, "currency")),
		Category:    getString(raw, "category"),
		Description: getString(raw, "description"),
	}
	if c.Amount <= 0 {
		return domain.TransactionCandidate{}, false
	}

	if contact := getString(raw, "contact"); contact != "" {
		c.CounterpartyRaw = contact
		if resolved := a.resolver.Resolve(ctx, contact); resolved != nil {
			c.CounterpartyCode = resolved.Code
		}
	}

	if received := getFloat(raw, "amount_received"); received > 0 {
		c.AmountReceived = &received
		c.CurrencyReceived = primaryCurrency
		if c.Currency == primaryCurrency {
			c.CurrencyReceived = "SAR"
		}
	}
	if rate := getFloat(raw, "exchange_rate"); rate > 0 {
		c.ExchangeRate = &rate
	}
	DeriveExchangeRate(&c)

	if w := getFloat(raw, "gold_weight"); w > 0 {
		c.GoldWeight = &w
	}
	if k := getFloat(raw, "gold_karat"); k > 0 {
		karat := int64(k)
		c.GoldKarat = &karat
	}

	return c, true
}

// DeriveExchangeRate fills the exchange rate from amount and received
// amount when both are present and no explicit rate was supplied, rounded
// to 2 decimal places. Idempotent: an already-derived rate is kept.
func DeriveExchangeRate(c *domain.TransactionCandidate) {
	if c.ExchangeRate != nil || c.AmountReceived == nil {
		return
	}
	if c.Amount <= 0 || *c.AmountReceived <= 0 {
		return
	}
	rate := decimal.NewFromFloat(*c.AmountReceived).
		DivRound(decimal.NewFromFloat(c.Amount), 2).
		InexactFloat64()
	c.ExchangeRate = &rate
}

func normalizeKind(label string) domain.Kind {
	if k, ok := kindNames[textnorm.Fold(label)]; ok {
		return k
	}
	// Unlabeled money leaving the household is the common case.
	return domain.KindExpense
}

func normalizeCurrency(label string) string {
	if code, ok := currencyNames[textnorm.Fold(label)]; ok {
		return code
	}
	return primaryCurrency
}

func getString(m map[string]interface{}, field string) string {
	for _, key := range fieldAliases[field] {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func getFloat(m map[string]interface{}, field string) float64 {
	for _, key := range fieldAliases[field] {
		switch v := m[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
				return d.InexactFloat64()
			}
		}
	}
	return 0
}
