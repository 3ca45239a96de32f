package handler

import (
	"fmt"
	"html"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
)

const (
	msgInternalError = "❌ Something went wrong. Please try again later."

	msgWelcomeUser = "👋 <b>Hi!</b>\n\n" +
		"Write your message here and I will pass it on to the team. " +
		"Text, photos, voice messages and files are all fine.\n\n" +
		"Replies will arrive in this chat."
	msgWelcomeAdmin = "👋 <b>You are the admin.</b>\n\n" +
		"📨 Messages from users arrive here. Reply to one to answer its sender.\n\n" +
		"📋 <b>Commands:</b>\n" +
		"/create_lottery — start a lottery (send it in the group)\n" +
		"/viewlottery — manage active lotteries\n" +
		"/next — finish the prize list while creating a lottery\n" +
		"/cancel — abort lottery creation\n" +
		"/logout — release the admin binding"
	msgWelcomeGroup = "👋 Lotteries announced in this chat are joined by sending their keyword."

	msgDelivered      = "✅ Message delivered."
	msgNotConfigured  = "⚠️ The bot is not set up yet. Please try again later."
	msgDeliveryFailed = "❌ Your message could not be delivered. Please try again later."

	msgReplySent      = "✅ Reply sent."
	msgOriginNotFound = "⚠️ I don't know who sent that message, so the reply was not delivered."
	msgUserBlocked    = "❌ Not delivered: the user has blocked the bot."
	msgReplyFailed    = "❌ The reply could not be delivered."
	msgAdminHint      = "ℹ️ Reply to a forwarded message to answer its sender."

	msgLoginPrivateOnly = "⚠️ /login only works in a private chat with the bot."
	msgLoginSucceeded   = "✅ <b>Login successful.</b>\n\nThis chat now receives user messages. Send /start for the command list."
	msgLoginExpired     = "⏱️ Login timed out. Send /login to try again."
	msgLoginWrong       = "❌ Wrong password."
	msgAlreadyBound     = "⚠️ An admin is already bound to this bot."
	msgPasswordNotSet   = "⚠️ The admin password has not been configured."
	msgLoggedOut        = "🔓 Logged out. Send /login to bind an admin chat again."

	msgAdminOnly        = "⛔ Only the admin can do this."
	msgPrivateOnly      = "⚠️ This command works in a private chat with the bot."
	msgCreateInGroup    = "⚠️ Send /create_lottery in the group where the lottery should run."
	msgStartBotFirst    = "⚠️ I can't message you privately. Open a chat with me, press Start and try again."
	msgCancelled        = "❌ Lottery creation cancelled."
	msgNothingToCancel  = "ℹ️ Nothing to cancel."
	msgNoDraft          = "ℹ️ You are not creating a lottery. Send /create_lottery in a group to start."
	msgDraftExpired     = "⏱️ Lottery creation timed out. Send /create_lottery in the group to start over."
	msgEmptyInput       = "⚠️ Please send some text."
	msgInvalidCount     = "⚠️ Send a whole number greater than zero."
	msgNoPrizes         = "⚠️ Add at least one prize first."
	msgCountPending     = "⚠️ Send the number of winners for this prize first."
	msgKeywordInUse     = "⚠️ Another active lottery in this group uses that keyword. Pick a different one."
	msgUseButtons       = "⚠️ Use the buttons to pick a duration."
	msgInvalidDuration  = "Unknown duration"
	msgAnnounceFailed   = "❌ Could not post the announcement. Make sure I can write in the group, then press a button again."
	msgLotteryCreated   = "✅ Created"
	msgNoActive         = "📋 No active lotteries."
	msgLotteryGone      = "This lottery was not found or has already ended."
	msgLotteryDelayed   = "⏰ Delayed by %s"
	msgLotteryEndedHint = "🏁 Drawing now"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func loginPrompt() string {
	return fmt.Sprintf("🔐 Send the admin password within %d seconds.", int(config.PendingLoginTTL.Seconds()))
}

func wizardIntro(groupTitle string) string {
	return fmt.Sprintf("🎊 Creating a lottery for <b>%s</b>\n⏱️ Each step times out after %d seconds. Send /cancel to abort.",
		escape(groupTitle), int(config.DraftTTL.Seconds()))
}

// prompt asks for whatever the draft is waiting for.
func prompt(d domain.Draft) (string, [][]domain.Button) {
	switch d := d.(type) {
	case domain.AwaitingTitle:
		return "📝 Send the lottery <b>title</b>.", nil
	case domain.AwaitingPrizeName:
		if len(d.Prizes) == 0 {
			return fmt.Sprintf("🎊 <b>%s</b>\n\n🎁 Send the name of the first prize.", escape(d.Title)), nil
		}
		return fmt.Sprintf("✅ %d prize tier(s), %d winner(s) so far.\n\n🎁 Send the next prize name, or /next to continue.",
			len(d.Prizes), domain.TotalSlots(d.Prizes)), nil
	case domain.AwaitingPrizeCount:
		return fmt.Sprintf("🔢 How many winners get <b>%s</b>? Send a whole number.", escape(d.PrizeName)), nil
	case domain.AwaitingKeyword:
		return "🔑 Send the <b>keyword</b> members will type in the group to join.", nil
	case domain.AwaitingDuration:
		return "⏰ How long should the lottery run?", durationButtons()
	}
	return msgNoDraft, nil
}

func durationButtons() [][]domain.Button {
	return [][]domain.Button{{
		{Text: "1 hour", Data: cbDuration + string(domain.DurationHour)},
		{Text: "1 day", Data: cbDuration + string(domain.DurationDay)},
		{Text: "3 days", Data: cbDuration + string(domain.DurationThreeDay)},
	}}
}
