package handler

import (
	"github.com/go-telegram/bot"
)

const (
	cbDuration     = "dur_"
	cbLotteryView  = "lot_view_"
	cbLotteryDelay = "lot_delay_"
	cbLotteryEnd   = "lot_end_"
	cbLotteryList  = "lot_list"
)

// Register registers all command and callback handlers on the bot instance.
// Everything else reaches Dispatch through the default handler.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/login", bot.MatchTypePrefix, h.handleLogin)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypePrefix, h.handleLogout)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypePrefix, h.handleCancel)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/next", bot.MatchTypePrefix, h.handleNext)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/create_lottery", bot.MatchTypePrefix, h.handleCreateLottery)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/viewlottery", bot.MatchTypePrefix, h.handleViewLotteries)

	// Wizard callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, cbDuration, bot.MatchTypePrefix, h.handleDuration)

	// Management callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, cbLotteryView, bot.MatchTypePrefix, h.handleLotteryView)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, cbLotteryDelay, bot.MatchTypePrefix, h.handleLotteryDelay)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, cbLotteryEnd, bot.MatchTypePrefix, h.handleLotteryEnd)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, cbLotteryList, bot.MatchTypeExact, h.handleLotteryList)
}
