package ledger

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/divantrade/masareef/internal/domain"
)

const (
	datasetID         = "household"
	transactionsTable = "transactions"
)

// TransactionRow mirrors the household.transactions table schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"`

	Kind     string  `bigquery:"kind"`
	Amount   float64 `bigquery:"amount"`
	Currency string  `bigquery:"currency"`

	AmountReceived   bigquery.NullFloat64 `bigquery:"amount_received"`
	CurrencyReceived bigquery.NullString  `bigquery:"currency_received"`
	ExchangeRate     bigquery.NullFloat64 `bigquery:"exchange_rate"`

	Category         string              `bigquery:"category"`
	CounterpartyCode bigquery.NullString `bigquery:"counterparty_code"`
	CounterpartyRaw  string              `bigquery:"counterparty_raw"`
	Description      string              `bigquery:"description"`

	GoldWeight bigquery.NullFloat64 `bigquery:"gold_weight"`
	GoldKarat  bigquery.NullInt64   `bigquery:"gold_karat"`

	SubmittedByID   int64  `bigquery:"submitted_by_id"`
	SubmittedByName string `bigquery:"submitted_by_name"`

	TransactionDate civil.Date `bigquery:"transaction_date"`
	CreatedTS       time.Time  `bigquery:"created_ts"`
}

// BigQueryGateway is the BigQuery-backed Gateway. It holds a shared client.
type BigQueryGateway struct {
	client *bigquery.Client
	now    func() time.Time
}

func NewBigQueryGateway(ctx context.Context, projectID string) (*BigQueryGateway, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryGateway: creating client: %w", err)
	}
	return NewBigQueryGatewayWithClient(client), nil
}

// NewBigQueryGatewayWithClient wraps an existing client so one connection
// serves every repository. The caller owns the client lifecycle.
func NewBigQueryGatewayWithClient(client *bigquery.Client) *BigQueryGateway {
	return &BigQueryGateway{client: client, now: time.Now}
}

func (g *BigQueryGateway) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Append streams one candidate into the transactions table.
func (g *BigQueryGateway) Append(ctx context.Context, c domain.TransactionCandidate, sender domain.Sender) (AppendResult, error) {
	row := rowFromCandidate(c, sender, g.now())

	inserter := g.client.Dataset(datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return AppendResult{}, fmt.Errorf("Append: inserting row: %w", err)
	}
	return AppendResult{ID: row.TransactionID, Message: "recorded"}, nil
}

// CustodyBalance sums deposits minus withdrawals for a custodian. Amounts
// count in the custody account's currency: the received amount when the
// deposit carried one, the plain amount otherwise.
func (g *BigQueryGateway) CustodyBalance(ctx context.Context, custodianCode string) (float64, error) {
	q := g.client.Query(fmt.Sprintf(`
		SELECT COALESCE(SUM(
		  IF(kind = @deposit_kind, 1, -1) * COALESCE(amount_received, amount)
		), 0) AS balance
		FROM %s.%s
		WHERE counterparty_code = @custodian
		  AND kind IN (@deposit_kind, @withdrawal_kind)
	`, datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "custodian", Value: custodianCode},
		{Name: "deposit_kind", Value: string(domain.KindCustodyDeposit)},
		{Name: "withdrawal_kind", Value: string(domain.KindCustodyWithdrawal)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CustodyBalance: query read: %w", err)
	}

	var row struct {
		Balance float64 `bigquery:"balance"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("CustodyBalance: iter next: %w", err)
	}
	return row.Balance, nil
}

// ListByDateRange returns committed rows in a date range, oldest first.
// Used by the export command.
func (g *BigQueryGateway) ListByDateRange(ctx context.Context, start, end time.Time) ([]*TransactionRow, error) {
	q := g.client.Query(fmt.Sprintf(`
		SELECT
		  transaction_id, kind, amount, currency,
		  amount_received, currency_received, exchange_rate,
		  category, counterparty_code, counterparty_raw, description,
		  gold_weight, gold_karat,
		  submitted_by_id, submitted_by_name,
		  transaction_date, created_ts
		FROM %s.%s
		WHERE transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, created_ts
	`, datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: start.Format("2006-01-02")},
		{Name: "end_date", Value: end.Format("2006-01-02")},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListByDateRange: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListByDateRange: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

func rowFromCandidate(c domain.TransactionCandidate, sender domain.Sender, now time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   uuid.NewString(),
		Kind:            string(c.Kind),
		Amount:          c.Amount,
		Currency:        c.Currency,
		Category:        c.Category,
		CounterpartyRaw: c.CounterpartyRaw,
		Description:     c.Description,
		SubmittedByID:   sender.ID,
		SubmittedByName: sender.Name,
		TransactionDate: civil.DateOf(now),
		CreatedTS:       now,
	}
	if c.CounterpartyCode != "" {
		row.CounterpartyCode = bigquery.NullString{StringVal: c.CounterpartyCode, Valid: true}
	}
	if c.AmountReceived != nil {
		row.AmountReceived = bigquery.NullFloat64{Float64: *c.AmountReceived, Valid: true}
		row.CurrencyReceived = bigquery.NullString{StringVal: c.CurrencyReceived, Valid: true}
	}
	if c.ExchangeRate != nil {
		row.ExchangeRate = bigquery.NullFloat64{Float64: *c.ExchangeRate, Valid: true}
	}
	if c.GoldWeight != nil {
		row.GoldWeight = bigquery.NullFloat64{Float64: *c.GoldWeight, Valid: true}
	}
	if c.GoldKarat != nil {
		row.GoldKarat = bigquery.NullInt64{Int64: *c.GoldKarat, Valid: true}
	}
	return row
}

var _ Gateway = (*BigQueryGateway)(nil)
