package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultAPIHost = "https://api.telegram.org"

// Update is one long-poll result: either a message or a button press.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName is the sender name shown in prompts and ledger rows.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type Chat struct {
	ID int64 `json:"id"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Telegram is a thin typed client over the Bot API.
type Telegram struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures the client.
type Option func(*Telegram)

// WithAPIHost overrides the API host, for tests.
func WithAPIHost(host string) Option {
	return func(t *Telegram) {
		t.baseURL = strings.TrimRight(host, "/") + t.baseURL[len(defaultAPIHost):]
	}
}

func NewTelegram(token string, log zerolog.Logger, opts ...Option) *Telegram {
	t := &Telegram{
		baseURL: defaultAPIHost + "/bot" + token,
		// Long polls run up to 50s server-side; leave headroom.
		httpClient: &http.Client{Timeout: 65 * time.Second},
		log:        log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SendMessage implements Sender. Actions render as one inline keyboard row.
func (t *Telegram) SendMessage(ctx context.Context, conversationID int64, text string, actions []Action) error {
	payload := map[string]interface{}{
		"chat_id": conversationID,
		"text":    text,
	}
	if len(actions) > 0 {
		row := make([]inlineButton, 0, len(actions))
		for _, a := range actions {
			row = append(row, inlineButton{Text: a.Label, CallbackData: a.Data})
		}
		payload["reply_markup"] = map[string]interface{}{
			"inline_keyboard": [][]inlineButton{row},
		}
	}
	return t.call(ctx, "sendMessage", payload, nil)
}

// GetUpdates long-polls for new updates starting at offset.
func (t *Telegram) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":          offset,
		"timeout":         timeoutSec,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := t.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// AnswerCallbackQuery acknowledges a button press so the client stops its
// loading spinner.
func (t *Telegram) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return t.call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
	}, nil)
}

func (t *Telegram) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: marshal payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram %s: api error: %s", method, api.Description)
	}
	if result != nil && len(api.Result) > 0 {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return fmt.Errorf("telegram %s: unmarshal result: %w", method, err)
		}
	}
	return nil
}

var _ Sender = (*Telegram)(nil)
