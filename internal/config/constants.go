package config

import "time"

const (
	// Session windows
	PendingLoginTTL  = 60 * time.Second
	DraftTTL         = 120 * time.Second
	// Redis keeps session keys this long so an expiry can still be reported
	SessionRetention = 15 * time.Minute

	// Draw processing
	DrawTimeout = 2 * time.Minute

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Per-chat inbound flood guard
	ChatRateLimit = 1
	ChatRateBurst = 5

	// Management list size for /viewlottery
	LotteriesPerPage = 10

	// Callback answers and other best-effort calls
	RequestTimeout = 10 * time.Second

	// HTTP server shutdown grace
	ShutdownTimeout = 10 * time.Second
)

// Settings keys.
const (
	SettingBotToken      = "bot_token"
	SettingAdminPassword = "admin_password"
	SettingAdminChatID   = "admin_chat_id"
)
