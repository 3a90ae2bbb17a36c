// Package bot ties the interpretation pipeline to the chat transport: it
// turns inbound messages into staged batches, renders confirmation prompts
// and dispatches the confirm/cancel/edit callbacks.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/divantrade/masareef/internal/assemble"
	"github.com/divantrade/masareef/internal/confirm"
	"github.com/divantrade/masareef/internal/domain"
	"github.com/divantrade/masareef/internal/extract"
	"github.com/divantrade/masareef/internal/oracle"
	"github.com/divantrade/masareef/internal/staging"
	"github.com/divantrade/masareef/internal/textnorm"
	"github.com/divantrade/masareef/internal/transport"
)

const (
	stagePromptHeader = "هل أسجل المعاملات التالية؟"
	directCommitNote  = "تعذر حفظ المعاملات للمراجعة، فسجلتها مباشرة:"
	nothingUsable     = "لم أستخرج أي معاملة صالحة من الرسالة."

	// defaultOracleTimeout bounds one interpretation call. Updates are
	// handled synchronously, so a hung oracle must become a transport
	// failure instead of wedging the poll loop.
	defaultOracleTimeout = 60 * time.Second
)

// Handler runs one inbound message or callback through the pipeline.
type Handler struct {
	extractor     *extract.CustodyExtractor
	interpreter   oracle.Interpreter
	assembler     *assemble.Assembler
	store         staging.Store
	machine       *confirm.StateMachine
	sender        transport.Sender
	log           zerolog.Logger
	oracleTimeout time.Duration
}

// Option configures the handler.
type Option func(*Handler)

// WithOracleTimeout overrides the interpretation deadline.
func WithOracleTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.oracleTimeout = d
	}
}

func NewHandler(
	extractor *extract.CustodyExtractor,
	interpreter oracle.Interpreter,
	assembler *assemble.Assembler,
	store staging.Store,
	machine *confirm.StateMachine,
	sender transport.Sender,
	log zerolog.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		extractor:     extractor,
		interpreter:   interpreter,
		assembler:     assembler,
		store:         store,
		machine:       machine,
		sender:        sender,
		log:           log,
		oracleTimeout: defaultOracleTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleMessage interprets one chat message and stages the resulting batch.
// Every outcome, including a parse failure, answers the user; only a
// transport error propagates.
func (h *Handler) HandleMessage(ctx context.Context, msg domain.RawMessage) error {
	norm := normalizeText(msg)
	if norm == "" {
		return nil
	}

	var (
		candidates []domain.TransactionCandidate
		dropped    int
	)
	switch extract.RouteText(norm) {
	case extract.RouteRule:
		candidate, failure := h.extractor.Extract(msg.Text, norm)
		if failure != nil {
			h.log.Info().
				Int64("conversation_id", msg.ConversationID).
				Str("reason", failure.Reason).
				Msg("rule extraction failed")
			return h.sender.SendMessage(ctx, msg.ConversationID, failure.UserMessage, nil)
		}
		candidates = []domain.TransactionCandidate{*candidate}
	default:
		result, failure := h.interpretBounded(ctx, normalizedCopy(msg, norm))
		if failure != nil {
			h.log.Warn().
				Int64("conversation_id", msg.ConversationID).
				Str("kind", string(failure.Kind)).
				Err(failure.Err).
				Msg("oracle interpretation failed")
			return h.sender.SendMessage(ctx, msg.ConversationID, failure.UserMessage, nil)
		}
		if !result.Success {
			// Clarification request authored by the model.
			return h.sender.SendMessage(ctx, msg.ConversationID, result.Message, nil)
		}
		candidates, dropped = h.assembler.AssembleOracle(ctx, result.Transactions)
	}

	if len(candidates) == 0 {
		return h.sender.SendMessage(ctx, msg.ConversationID, nothingUsable, nil)
	}

	batch := domain.PendingBatch{
		ConversationID: msg.ConversationID,
		Candidates:     candidates,
		SubmittedBy:    domain.Sender{ID: msg.SenderID, Name: msg.SenderName},
	}
	if err := h.store.Stage(ctx, msg.ConversationID, batch); err != nil {
		h.log.Error().
			Int64("conversation_id", msg.ConversationID).
			Err(err).
			Msg("staging failed, committing directly")
		results := h.machine.Commit(ctx, batch)
		reply := directCommitNote + "\n" + h.machine.Summary(ctx, results)
		return h.sender.SendMessage(ctx, msg.ConversationID, reply, nil)
	}

	prompt := renderPrompt(candidates, dropped, len(candidates)+dropped)
	return h.sender.SendMessage(ctx, msg.ConversationID, prompt, transport.ConfirmActions())
}

// HandleCallback dispatches one confirm/cancel/edit button press.
func (h *Handler) HandleCallback(ctx context.Context, conversationID int64, action string) error {
	var reply string
	switch action {
	case transport.ActionConfirm:
		reply, _ = h.machine.OnConfirm(ctx, conversationID)
	case transport.ActionCancel:
		reply = h.machine.OnCancel(ctx, conversationID)
	case transport.ActionEdit:
		reply = h.machine.OnEdit(ctx, conversationID)
	default:
		h.log.Warn().Str("action", action).Msg("unknown callback action")
		return nil
	}
	return h.sender.SendMessage(ctx, conversationID, reply, nil)
}

func (h *Handler) interpretBounded(ctx context.Context, msg domain.RawMessage) (*oracle.Result, *oracle.Failure) {
	ctx, cancel := context.WithTimeout(ctx, h.oracleTimeout)
	defer cancel()
	return h.interpreter.Interpret(ctx, msg)
}

func normalizeText(msg domain.RawMessage) string {
	return textnorm.Normalize(msg.Text)
}

// renderPrompt builds the staged-batch confirmation text. When the
// assembler dropped entries the header reports the usable share so the
// user knows the batch is partial.
func renderPrompt(candidates []domain.TransactionCandidate, dropped, total int) string {
	var b strings.Builder
	if dropped > 0 {
		fmt.Fprintf(&b, "فهمت %d من %d معاملة.\n", len(candidates), total)
	}
	b.WriteString(stagePromptHeader)
	for i, c := range candidates {
		fmt.Fprintf(&b, "\n%d. %s: %s %s", i+1, confirm.KindLabel(c.Kind), confirm.FormatAmount(c.Amount), c.Currency)
		if c.AmountReceived != nil {
			fmt.Fprintf(&b, " (وصل %s %s", confirm.FormatAmount(*c.AmountReceived), c.CurrencyReceived)
			if c.ExchangeRate != nil {
				fmt.Fprintf(&b, "، سعر %s", confirm.FormatAmount(*c.ExchangeRate))
			}
			b.WriteString(")")
		}
		if c.CounterpartyCode != "" {
			fmt.Fprintf(&b, " مع %s", c.CounterpartyCode)
		} else if c.CounterpartyRaw != "" {
			fmt.Fprintf(&b, " مع %s", c.CounterpartyRaw)
		}
		if c.Category != "" {
			fmt.Fprintf(&b, " [%s]", c.Category)
		}
	}
	return b.String()
}

func normalizedCopy(msg domain.RawMessage, norm string) domain.RawMessage {
	msg.Text = norm
	return msg
}
