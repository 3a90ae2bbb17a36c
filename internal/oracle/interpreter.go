// Package oracle adapts the external natural-language model into the
// pipeline: it builds the domain prompt, calls the model, digs the JSON
// envelope out of the completion and normalizes the bilingual envelope keys.
// Every failure path yields a user-facing message, never a raw error.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/divantrade/masareef/internal/archive"
	"github.com/divantrade/masareef/internal/categories"
	"github.com/divantrade/masareef/internal/domain"
)

// Result is the success envelope: zero or more raw transaction objects plus
// an optional human-readable message. Transaction field names stay raw
// (either key vocabulary); the assembler normalizes them once at its
// boundary.
type Result struct {
	Success      bool
	Message      string
	Transactions []map[string]interface{}
}

// Interpreter is what the pipeline depends on; Adapter is the live
// implementation.
type Interpreter interface {
	Interpret(ctx context.Context, msg domain.RawMessage) (*Result, *Failure)
}

// Adapter wires the completion client, the category vocabulary and the
// completion archive together.
type Adapter struct {
	client     CompletionClient
	categories categories.Registry
	sink       archive.Sink
	log        zerolog.Logger
}

func NewAdapter(client CompletionClient, registry categories.Registry, sink archive.Sink, log zerolog.Logger) *Adapter {
	if sink == nil {
		sink = archive.Nop{}
	}
	return &Adapter{client: client, categories: registry, sink: sink, log: log}
}

// Interpret sends the message to the oracle and extracts the structured
// result. The caller passes the normalized text in msg.Text.
func (a *Adapter) Interpret(ctx context.Context, msg domain.RawMessage) (*Result, *Failure) {
	prompt := buildPrompt(ctx, a.categories, msg.Text, msg.SenderName)

	completion, err := a.client.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			a.log.Error().Err(err).Msg("oracle credential missing")
			return nil, newFailure(FailureConfig, err)
		}
		a.log.Error().Err(err).Int64("conversation_id", msg.ConversationID).Msg("oracle call failed")
		return nil, newFailure(FailureTransport, err)
	}

	runID := uuid.NewString()
	if err := a.sink.StoreCompletion(ctx, msg.ConversationID, runID, completion); err != nil {
		a.log.Warn().Err(err).Str("run_id", runID).Msg("completion archive failed")
	}

	if strings.TrimSpace(completion) == "" {
		return nil, newFailure(FailureEmpty, fmt.Errorf("empty completion"))
	}

	raw := firstJSONObject(completion)
	if raw == "" {
		return nil, newFailure(FailureUnparsable, fmt.Errorf("no JSON object in completion"))
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, newFailure(FailureUnparsable, fmt.Errorf("unmarshal completion: %w", err))
	}

	result := decodeEnvelope(envelope)
	a.log.Info().
		Int64("conversation_id", msg.ConversationID).
		Str("run_id", runID).
		Bool("success", result.Success).
		Int("transactions", len(result.Transactions)).
		Msg("oracle interpretation")
	return result, nil
}

// Envelope keys are accepted in both the Arabic and the English vocabulary.
func decodeEnvelope(envelope map[string]interface{}) *Result {
	result := &Result{}

	if v, ok := lookup(envelope, "success", "نجاح"); ok {
		if b, ok := v.(bool); ok {
			result.Success = b
		}
	}
	if v, ok := lookup(envelope, "message", "رسالة"); ok {
		if s, ok := v.(string); ok {
			result.Message = strings.TrimSpace(s)
		}
	}
	if v, ok := lookup(envelope, "transactions", "معاملات"); ok {
		if items, ok := v.([]interface{}); ok {
			for _, item := range items {
				if obj, ok := item.(map[string]interface{}); ok {
					result.Transactions = append(result.Transactions, obj)
				}
			}
		}
	}

	if !result.Success && result.Message == "" {
		result.Message = rephraseGuidance
	}
	return result
}

func lookup(m map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
