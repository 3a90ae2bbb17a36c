package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/joho/godotenv"

	"github.com/divantrade/masareef/internal/archive"
	"github.com/divantrade/masareef/internal/assemble"
	"github.com/divantrade/masareef/internal/bot"
	"github.com/divantrade/masareef/internal/categories"
	"github.com/divantrade/masareef/internal/confirm"
	"github.com/divantrade/masareef/internal/contacts"
	"github.com/divantrade/masareef/internal/extract"
	"github.com/divantrade/masareef/internal/ledger"
	"github.com/divantrade/masareef/internal/logger"
	"github.com/divantrade/masareef/internal/oracle"
	"github.com/divantrade/masareef/internal/staging"
	"github.com/divantrade/masareef/internal/staging/inmemory"
	"github.com/divantrade/masareef/internal/state"
	"github.com/divantrade/masareef/internal/transport"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var (
		model   = flag.String("model", oracle.DefaultModelName, "completion model name")
		project = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project id (or set GCP_PROJECT env)")
		bucket  = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for completion archives (or set GCS_BUCKET env)")
		ttl     = flag.Duration("ttl", staging.DefaultTTL, "how long a staged batch stays confirmable")
	)
	flag.Parse()

	log := logger.New("masareef-bot")

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is required")
	}
	if *project == "" {
		log.Fatal().Msg("GCP project is required (flag -project or GCP_PROJECT env)")
	}

	ctx := context.Background()

	// One shared connection serves the ledger and both registries.
	bqClient, err := bigquery.NewClient(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer bqClient.Close()

	gateway := ledger.NewBigQueryGatewayWithClient(bqClient)
	contactRegistry := contacts.NewBigQueryRegistryWithClient(bqClient)
	categoryRegistry := categories.NewBigQueryRegistryWithClient(bqClient)

	var sink archive.Sink = archive.Nop{}
	if *bucket != "" {
		sink = archive.NewGCS(*bucket)
	} else {
		log.Warn().Msg("No GCS bucket configured - completion archiving is disabled")
	}

	interpreter := oracle.NewAdapter(oracle.NewGeminiClient(*model), categoryRegistry, sink, log)
	store := inmemory.NewStore(*ttl)
	machine := confirm.NewStateMachine(store, gateway, log)
	assembler := assemble.New(contacts.NewResolver(contactRegistry, log), log)
	client := transport.NewTelegram(token, log)

	handler := bot.NewHandler(
		extract.DefaultCustodyExtractor(),
		interpreter,
		assembler,
		store,
		machine,
		client,
		log,
	)
	poller := bot.NewPoller(client, handler, state.NewMemory(), log)

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().Str("model", *model).Dur("ttl", *ttl).Msg("Starting bot poller")
		if err := poller.Run(pollCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Poller stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Poller did not stop within shutdown window")
	}

	log.Info().Msg("Bot exited")
}
