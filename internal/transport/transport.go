// Package transport is the chat side of the system: the outbound message
// interface the pipeline depends on, and the Telegram Bot API client that
// implements it. Delivery is best-effort; there is no acknowledgment
// contract beyond the API response.
package transport

import "context"

// Callback data values for the three confirmation actions. Each maps 1:1
// to a confirmation state machine transition.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
	ActionEdit    = "edit"
)

// Action is one quick-reply button.
type Action struct {
	Label string
	Data  string
}

// ConfirmActions returns the exact three actions offered per staged batch.
func ConfirmActions() []Action {
	return []Action{
		{Label: "✅ تأكيد", Data: ActionConfirm},
		{Label: "❌ إلغاء", Data: ActionCancel},
		{Label: "✏️ تعديل", Data: ActionEdit},
	}
}

// Sender delivers messages to a conversation, optionally with quick-reply
// actions.
type Sender interface {
	SendMessage(ctx context.Context, conversationID int64, text string, actions []Action) error
}
