package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alritech/tikbot/internal/domain"
)

// Client talks to the Bot API over plain HTTP. Safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient constructs a client against baseURL (normally
// "https://api.telegram.org") with the given bot token. A nil httpClient
// gets a 60s-timeout default, generous enough for long polls.
func NewClient(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// RequestError is a Bot API failure with whatever detail the API returned.
type RequestError struct {
	StatusCode  int
	ErrorCode   int
	Description string
	Body        string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "telegram request failed"
	}
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		desc = strings.TrimSpace(e.Body)
	}
	if e.StatusCode > 0 {
		if desc != "" {
			return fmt.Sprintf("telegram http %d: %s", e.StatusCode, desc)
		}
		return fmt.Sprintf("telegram http %d", e.StatusCode)
	}
	if desc != "" {
		return "telegram: " + desc
	}
	return "telegram request failed"
}

type okResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// call POSTs a JSON method request and decodes the result envelope. A nil
// out discards the result payload.
func (c *Client) call(ctx context.Context, method string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var env okResponse
	_ = json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.OK {
		return &RequestError{
			StatusCode:  resp.StatusCode,
			ErrorCode:   env.ErrorCode,
			Description: env.Description,
			Body:        strings.TrimSpace(string(raw)),
		}
	}
	if out != nil && len(env.Result) > 0 {
		return json.Unmarshal(env.Result, out)
	}
	return nil
}

// GetMe returns the bot's own account, used as a startup connectivity check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, "getMe", struct{}{}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUpdates long-polls for updates past offset and returns them together
// with the next offset to poll from. The HTTP deadline is padded past the
// server-side poll timeout so a quiet poll is not misread as a failure.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()

	body := struct {
		Offset  int64 `json:"offset,omitempty"`
		Timeout int   `json:"timeout"`
	}{Offset: offset, Timeout: secs}

	var updates []Update
	if err := c.call(reqCtx, "getUpdates", body, &updates); err != nil {
		return nil, offset, err
	}

	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

// IsPollTimeout reports whether err is the benign expiry of a long poll
// rather than a real transport failure.
func IsPollTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded")
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendText sends a plain message and returns its message id for later
// in-place edits.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) (int64, error) {
	return c.sendMessage(ctx, sendMessageRequest{ChatID: chatID, Text: text})
}

// SendTextWithKeyboard sends a message carrying an inline keyboard built
// from the given button rows.
func (c *Client) SendTextWithKeyboard(ctx context.Context, chatID int64, text string, rows [][]domain.MenuButton) (int64, error) {
	return c.sendMessage(ctx, sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboardFromRows(rows),
	})
}

func (c *Client) sendMessage(ctx context.Context, body sendMessageRequest) (int64, error) {
	var msg Message
	if err := c.call(ctx, "sendMessage", body, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// keyboardFromRows converts transport-neutral menu buttons into the Bot API
// markup shape. Nil input yields nil markup.
func keyboardFromRows(rows [][]domain.MenuButton) *InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := &InlineKeyboardMarkup{InlineKeyboard: make([][]InlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		out := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			out = append(out, InlineKeyboardButton{
				Text:         b.Label,
				CallbackData: b.Callback,
				URL:          b.URL,
			})
		}
		kb.InlineKeyboard = append(kb.InlineKeyboard, out)
	}
	return kb
}

// EditText rewrites a previously sent message in place.
func (c *Client) EditText(ctx context.Context, chatID, messageID int64, text string) error {
	body := struct {
		ChatID    int64  `json:"chat_id"`
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
	}{ChatID: chatID, MessageID: messageID, Text: text}
	return c.call(ctx, "editMessageText", body, nil)
}

// ClearInlineKeyboard removes the inline keyboard from a message by
// replacing its markup with an empty keyboard.
func (c *Client) ClearInlineKeyboard(ctx context.Context, chatID, messageID int64) error {
	body := struct {
		ChatID      int64                `json:"chat_id"`
		MessageID   int64                `json:"message_id"`
		ReplyMarkup InlineKeyboardMarkup `json:"reply_markup"`
	}{ChatID: chatID, MessageID: messageID, ReplyMarkup: InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}}}
	return c.call(ctx, "editMessageReplyMarkup", body, nil)
}

// SendVideo delivers a video by URL; Telegram fetches and re-hosts it.
func (c *Client) SendVideo(ctx context.Context, chatID int64, videoURL, caption string) error {
	body := struct {
		ChatID  int64  `json:"chat_id"`
		Video   string `json:"video"`
		Caption string `json:"caption,omitempty"`
	}{ChatID: chatID, Video: videoURL, Caption: caption}
	return c.call(ctx, "sendVideo", body, nil)
}

// SendChatAction shows a transient "typing…"/"uploading…" indicator.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	body := struct {
		ChatID int64  `json:"chat_id"`
		Action string `json:"action"`
	}{ChatID: chatID, Action: action}
	return c.call(ctx, "sendChatAction", body, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing its loading spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	body := struct {
		CallbackQueryID string `json:"callback_query_id"`
	}{CallbackQueryID: callbackID}
	return c.call(ctx, "answerCallbackQuery", body, nil)
}
