package categories

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	datasetID       = "household"
	categoriesTable = "categories"
)

// CategoryRow mirrors the household.categories table schema.
type CategoryRow struct {
	Name     string `bigquery:"name"`
	Group    string `bigquery:"category_group"`
	IsActive bool   `bigquery:"is_active"`
}

// BigQueryRegistry reads the category vocabulary from BigQuery.
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

func (r *BigQueryRegistry) ListActiveCategories(ctx context.Context) ([]Category, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
		  name,
		  category_group,
		  is_active
		FROM %s.%s
		WHERE is_active = TRUE
		ORDER BY category_group, name
	`, datasetID, categoriesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveCategories: query read: %w", err)
	}

	var out []Category
	for {
		var row CategoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveCategories: iter next: %w", err)
		}
		out = append(out, Category{Name: row.Name, Group: Group(row.Group)})
	}
	return out, nil
}
