// Package archive stores raw oracle completions for later inspection. The
// archive is best-effort: a write failure is logged by the caller and never
// fails the message.
package archive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Sink receives one raw completion per interpretation run.
type Sink interface {
	StoreCompletion(ctx context.Context, conversationID int64, runID, completion string) error
}

// Nop discards completions. Used when no bucket is configured.
type Nop struct{}

func (Nop) StoreCompletion(ctx context.Context, conversationID int64, runID, completion string) error {
	return nil
}

// GCS archives completions as text objects under
// completions/<conversation>/<runID>.txt.
type GCS struct {
	bucket string
}

func NewGCS(bucket string) *GCS {
	return &GCS{bucket: bucket}
}

func (g *GCS) StoreCompletion(ctx context.Context, conversationID int64, runID, completion string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("StoreCompletion: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	objectName := fmt.Sprintf("completions/%d/%s.txt", conversationID, runID)
	w := client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	if _, err := io.Copy(w, strings.NewReader(completion)); err != nil {
		_ = w.Close()
		return fmt.Errorf("StoreCompletion: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("StoreCompletion: finalize object: %w", err)
	}
	return nil
}
