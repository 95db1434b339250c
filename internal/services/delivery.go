// Package services – Delivery contract
//
// The controller and pipeline only depend on this interface; the concrete
// Telegram client lives in internal/telegram. Transport retries, delivery
// ordering across chats, and rendering are the adapter's problem.
package services

import (
	"context"

	"github.com/alritech/tikbot/internal/domain"
)

// Delivery sends and edits outbound messages through the chat transport.
//
// SendText and SendTextWithKeyboard return the transport's message id so
// the caller can edit the message in place later. Cosmetic edit failures
// (progress edits, keyboard clearing) are logged and swallowed at call
// sites, never escalated.
type Delivery interface {
	SendText(ctx context.Context, chatID int64, text string) (int64, error)
	SendTextWithKeyboard(ctx context.Context, chatID int64, text string, rows [][]domain.MenuButton) (int64, error)
	EditText(ctx context.Context, chatID, messageID int64, text string) error
	ClearInlineKeyboard(ctx context.Context, chatID, messageID int64) error
	SendVideo(ctx context.Context, chatID int64, videoURL, caption string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}
