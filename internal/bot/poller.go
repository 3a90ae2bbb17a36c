package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/divantrade/masareef/internal/domain"
	"github.com/divantrade/masareef/internal/state"
	"github.com/divantrade/masareef/internal/transport"
)

const (
	offsetKey      = "telegram_offset"
	pollTimeoutSec = 50
	errBackoff     = 5 * time.Second
)

// Poller drives the long-poll loop: fetch updates, hand each one to the
// handler, advance the offset cursor.
type Poller struct {
	client  *transport.Telegram
	handler *Handler
	cursor  state.Store
	log     zerolog.Logger
}

func NewPoller(client *transport.Telegram, handler *Handler, cursor state.Store, log zerolog.Logger) *Poller {
	return &Poller{client: client, handler: handler, cursor: cursor, log: log}
}

// Run polls until the context is cancelled. A failed poll backs off and
// retries; a failed update is logged and skipped so one bad message cannot
// wedge the loop.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		updates, err := p.client.GetUpdates(ctx, p.offset(), pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errBackoff):
			}
			continue
		}
		for _, u := range updates {
			p.dispatch(ctx, u)
			p.cursor.Set(offsetKey, strconv.FormatInt(u.UpdateID+1, 10))
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u transport.Update) {
	switch {
	case u.Message != nil && u.Message.Text != "":
		msg := domain.RawMessage{
			ConversationID: u.Message.Chat.ID,
			SenderID:       senderID(u.Message.From),
			SenderName:     u.Message.From.DisplayName(),
			Text:           u.Message.Text,
			ReceivedAt:     time.Unix(u.Message.Date, 0).UTC(),
		}
		if err := p.handler.HandleMessage(ctx, msg); err != nil {
			p.log.Error().
				Int64("conversation_id", msg.ConversationID).
				Err(err).
				Msg("message handling failed")
		}
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		// Ack first so the button stops spinning even if handling fails.
		if err := p.client.AnswerCallbackQuery(ctx, cb.ID); err != nil {
			p.log.Warn().Err(err).Msg("answerCallbackQuery failed")
		}
		if cb.Message == nil {
			return
		}
		if err := p.handler.HandleCallback(ctx, cb.Message.Chat.ID, cb.Data); err != nil {
			p.log.Error().
				Int64("conversation_id", cb.Message.Chat.ID).
				Err(err).
				Msg("callback handling failed")
		}
	}
}

func (p *Poller) offset() int64 {
	raw, ok := p.cursor.Get(offsetKey)
	if !ok {
		return 0
	}
	offset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return offset
}

func senderID(u *transport.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
