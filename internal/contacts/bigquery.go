package contacts

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	datasetID     = "household"
	contactsTable = "contacts"
)

// ContactRow mirrors the household.contacts table schema.
type ContactRow struct {
	Code               string              `bigquery:"code"`
	DisplayName        string              `bigquery:"display_name"`
	Relation           bigquery.NullString `bigquery:"relation"`
	Aliases            []string            `bigquery:"aliases"`
	CurrencyPreference bigquery.NullString `bigquery:"currency_preference"`
	IsActive           bool                `bigquery:"is_active"`
	SortOrder          int64               `bigquery:"sort_order"`
}

// BigQueryRegistry reads the contact registry from BigQuery. It holds a
// shared client; the registry is read-only from this side.
type BigQueryRegistry struct {
	client *bigquery.Client
}

func NewBigQueryRegistry(ctx context.Context, projectID string) (*BigQueryRegistry, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRegistry: creating client: %w", err)
	}
	return NewBigQueryRegistryWithClient(client), nil
}

// NewBigQueryRegistryWithClient wraps an existing client. The caller owns
// the client lifecycle.
func NewBigQueryRegistryWithClient(client *bigquery.Client) *BigQueryRegistry {
	return &BigQueryRegistry{client: client}
}

func (r *BigQueryRegistry) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListActiveContacts returns active contacts in their configured sort order.
// No caching: the registry is re-read per use, freshness over performance.
func (r *BigQueryRegistry) ListActiveContacts(ctx context.Context) ([]Contact, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
		  code,
		  display_name,
		  relation,
		  aliases,
		  currency_preference,
		  is_active,
		  sort_order
		FROM %s.%s
		WHERE is_active = TRUE
		ORDER BY sort_order, code
	`, datasetID, contactsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveContacts: query read: %w", err)
	}

	var out []Contact
	for {
		var row ContactRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveContacts: iter next: %w", err)
		}
		out = append(out, contactFromRow(&row))
	}
	return out, nil
}

func contactFromRow(row *ContactRow) Contact {
	c := Contact{
		Code:        row.Code,
		DisplayName: row.DisplayName,
		Aliases:     row.Aliases,
		Active:      row.IsActive,
	}
	if row.Relation.Valid {
		c.Relation = row.Relation.StringVal
	}
	if row.CurrencyPreference.Valid {
		c.CurrencyPreference = row.CurrencyPreference.StringVal
	}
	return c
}
