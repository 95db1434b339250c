// Package domain defines the core types shared across the bot: the
// per-conversation mode driving the menu state machine, the transient
// metadata returned by the video-resolution API, and the persisted
// download-history model mapped with GORM.
package domain

import (
	"time"
)

// ConversationMode is the enumerated state of a single chat. It decides
// which inbound messages are meaningful: only a chat in ModeAwaitingLink
// has its text treated as a TikTok link.
type ConversationMode int

const (
	// ModeIdle is the default for chats with no recorded state.
	ModeIdle ConversationMode = iota

	// ModeAwaitingMenuChoice is set after /start; the bot is waiting for an
	// inline-menu selection.
	ModeAwaitingMenuChoice

	// ModeAwaitingLink is set after the user picks the downloader option;
	// text input is validated and fed to the fetch pipeline.
	ModeAwaitingLink
)

// String returns a stable lowercase name, used in logs.
func (m ConversationMode) String() string {
	switch m {
	case ModeAwaitingMenuChoice:
		return "awaiting_menu_choice"
	case ModeAwaitingLink:
		return "awaiting_link"
	default:
		return "idle"
	}
}

// VideoMetadata is the per-request result of a successful fetch. It is
// transient: rendered into the progress message and the video caption,
// never persisted as-is.
type VideoMetadata struct {
	AuthorHandle string
	MusicTitle   string
	PlayCount    int64
	LikeCount    int64
	ShareURL     string
	PlayURL      string // direct HD video URL, empty means not playable
}

// MenuButton is one inline-keyboard button. Exactly one of Callback or URL
// should be set: Callback buttons produce menu-selection events, URL
// buttons open externally and never call back.
type MenuButton struct {
	Label    string
	Callback string
	URL      string
}

// Download is one successfully delivered video, recorded best-effort in
// SQLite for the operational stats endpoint. The durable usage counter
// lives in the JSON stats file, not here.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ChatID: Telegram chat the video was delivered to; indexed.
//   - Sender: username or first name of the requester.
//   - AuthorHandle: TikTok author of the delivered video.
//   - ShareURL: canonical share URL reported by the API.
//   - ResolvedURL: the link after redirect resolution, as submitted upstream.
//   - CreatedAt: timestamp managed by GORM.
type Download struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	ChatID       int64     `json:"chat_id"       gorm:"not null;index:idx_chat_downloads"`
	Sender       string    `json:"sender"        gorm:"type:varchar(64)"`
	AuthorHandle string    `json:"author_handle" gorm:"type:varchar(128)"`
	ShareURL     string    `json:"share_url"     gorm:"type:text"`
	ResolvedURL  string    `json:"resolved_url"  gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for Download.
func (Download) TableName() string { return "downloads" }
