// Package services – user-facing copy
//
// This file holds every piece of text the bot sends, including the rotating
// variants for cooldown notices, success confirmations, and generic errors.
// Variants are picked uniformly at random so repeated failures do not read
// like a stuck bot.
package services

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/alritech/tikbot/internal/domain"
)

var cooldownMessages = []string{
	"⏳ Easy there — give it 3 seconds between requests.",
	"🚨 Slow down a little, there is a short cooldown between requests.",
	"💨 Not so fast! You can go again in a few seconds.",
}

var successMessages = []string{
	"Done!",
	"Video downloaded and delivered! 🎉",
	"Smooth landing! Got another link for me? 🚀",
	"All done — enjoy! Want to go again? 😎",
}

var generalErrorMessages = []string{
	"💥 Ouch, something went wrong while processing that. Send it again?",
	"😢 That did not work out. Give it another try in a moment.",
	"⚠️ Internal bot error. Sorry about that — try again later.",
}

const (
	msgWelcome1 = "Hey! Welcome to TikBot 🤖."
	msgWelcome2 = "Bot by @alritech."
	msgWelcome3 = "Here you can download TikTok videos without the watermark."

	msgMenuPrompt  = "Pick an option:"
	msgLinkPrompt  = "TikTok it is. Send me the link! 👇"
	msgInvalidLink = "That does not look like a TikTok link. Send a vt/vm/www.tiktok.com link, or type /start to get back to the menu. 👆"
	msgGuidance    = "I can only handle TikTok video links. Type /start if you need the menu."

	msgCheckingLink = "⏳ Checking your link… hang tight!"
	msgFetching     = "✨ Pulling video data from TikTok… almost there!"
	msgUploading    = "🚀 Your video is ready, uploading to Telegram… 📤"

	msgVideoNotFound = "😢 Video not found or already removed from TikTok. Try another link."
	msgNoPlayableURL = "💥 Could not grab that one: no direct video URL was found."
	msgFetchTimeout  = "⏰ The download server is having a busy moment. Try again in a few seconds!"
	msgNetworkError  = "🔌 Could not reach the download server. It may be down — try again later."
)

// Menu button labels and callback keys.
const (
	labelDownloader = "🎵 TikTok Downloader"
	labelStats      = "📊 Bot stats"
	labelChannel    = "My channel"
	labelAgain      = "✅ Download another"
	labelMainMenu   = "🏠 Main menu"

	callbackDownloader = "tiktok_downloader"
	callbackShowStats  = "show_stats"
	callbackStartMenu  = "start_menu"
)

// pick returns a uniformly random element of variants.
func pick(variants []string) string {
	return variants[rand.Intn(len(variants))]
}

// failureMessage maps a pipeline error to its user-facing wording. Unknown
// errors rotate through the generic variants.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrVideoNotFound):
		return msgVideoNotFound
	case errors.Is(err, ErrNoPlayableURL):
		return msgNoPlayableURL
	case errors.Is(err, ErrFetchTimeout):
		return msgFetchTimeout
	case errors.Is(err, ErrNetworkUnreachable):
		return msgNetworkError
	default:
		return pick(generalErrorMessages)
	}
}

// renderMetadata formats the video info block that replaces the progress
// message once a fetch succeeds.
func renderMetadata(m *domain.VideoMetadata) string {
	author := m.AuthorHandle
	if author == "" {
		author = "unknown"
	}
	music := m.MusicTitle
	if music == "" {
		music = "-"
	}
	share := m.ShareURL
	if share == "" {
		share = "-"
	}
	return fmt.Sprintf("🌟 Video info:\n👤 User: @%s\n🎵 Music: %s\n👁️ Views: %d\n❤️ Likes: %d\n🔗 Source: %s",
		author, music, m.PlayCount, m.LikeCount, share)
}

// videoCaption formats the caption attached to the delivered video.
func videoCaption(m *domain.VideoMetadata) string {
	author := m.AuthorHandle
	if author == "" {
		author = "user"
	}
	music := m.MusicTitle
	if music == "" {
		music = "No music info"
	}
	return fmt.Sprintf("🎬 @%s\n🎵 %s", author, music)
}

// statsMessage formats the running total for the stats menu option.
func statsMessage(total int64) string {
	return fmt.Sprintf("📊 Bot stats:\nTotal videos downloaded: %d ✅\nType /start to get back to the menu.", total)
}
