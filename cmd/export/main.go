package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"github.com/divantrade/masareef/internal/ledger"
	"github.com/divantrade/masareef/internal/logger"
)

const dateLayout = "2006-01-02"

func main() {
	_ = godotenv.Load()

	var (
		project = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project id (or set GCP_PROJECT env)")
		start   = flag.String("start", "", "range start date, YYYY-MM-DD (inclusive)")
		end     = flag.String("end", "", "range end date, YYYY-MM-DD (inclusive)")
		out     = flag.String("out", "-", "output file path, or - for stdout")
		bucket  = flag.String("bucket", "", "GCS bucket to upload the export to instead of writing locally")
		object  = flag.String("object", "", "GCS object name (defaults to exports/<start>_<end>.csv)")
	)
	flag.Parse()

	log := logger.New("masareef-export")

	if *project == "" {
		log.Fatal().Msg("GCP project is required (flag -project or GCP_PROJECT env)")
	}
	startDate, err := time.Parse(dateLayout, *start)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -start date")
	}
	endDate, err := time.Parse(dateLayout, *end)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -end date")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	gateway, err := ledger.NewBigQueryGateway(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger gateway")
	}
	defer gateway.Close()

	rows, err := gateway.ListByDateRange(ctx, startDate, endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Ledger query failed")
	}
	log.Info().Int("rows", len(rows)).Msg("Fetched ledger rows")

	switch {
	case *bucket != "":
		name := *object
		if name == "" {
			name = fmt.Sprintf("exports/%s_%s.csv", *start, *end)
		}
		if err := uploadCSV(ctx, *bucket, name, rows); err != nil {
			log.Fatal().Err(err).Msg("Upload failed")
		}
		fmt.Printf("Exported %d rows to gs://%s/%s\n", len(rows), *bucket, name)
	case *out == "-":
		if err := writeCSV(os.Stdout, rows); err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
	default:
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		if err := writeCSV(f, rows); err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
		fmt.Printf("Exported %d rows to %s\n", len(rows), *out)
	}
}

func writeCSV(w io.Writer, rows []*ledger.TransactionRow) error {
	cw := csv.NewWriter(w)
	header := []string{
		"transaction_id", "transaction_date", "kind", "amount", "currency",
		"amount_received", "currency_received", "exchange_rate",
		"category", "counterparty_code", "counterparty_raw", "description",
		"gold_weight", "gold_karat", "submitted_by", "created_ts",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writeCSV: writing header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.TransactionID,
			r.TransactionDate.String(),
			r.Kind,
			strconv.FormatFloat(r.Amount, 'f', -1, 64),
			r.Currency,
			nullFloat(r.AmountReceived),
			r.CurrencyReceived.StringVal,
			nullFloat(r.ExchangeRate),
			r.Category,
			r.CounterpartyCode.StringVal,
			r.CounterpartyRaw,
			r.Description,
			nullFloat(r.GoldWeight),
			nullInt(r.GoldKarat),
			r.SubmittedByName,
			r.CreatedTS.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writeCSV: writing row %s: %w", r.TransactionID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func uploadCSV(ctx context.Context, bucket, object string, rows []*ledger.TransactionRow) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("uploadCSV: creating storage client: %w", err)
	}
	defer client.Close()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"
	if err := writeCSV(w, rows); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("uploadCSV: closing object writer: %w", err)
	}
	return nil
}

func nullFloat(v bigquery.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

func nullInt(v bigquery.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}
