package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04 MST"

var hundred = decimal.NewFromInt(100)

// Renderer builds the HTML texts the bot posts about lotteries.
type Renderer struct {
	loc *time.Location
}

func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

func esc(s string) string {
	return html.EscapeString(s)
}

func (r *Renderer) formatTime(t time.Time) string {
	return t.In(r.loc).Format(timeLayout)
}

// TimeLeft formats the remaining time as "Xd Yh", "Xh Ym" or "Ym".
func TimeLeft(end, now time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return "ended"
	}
	days := int(diff / (24 * time.Hour))
	hours := int(diff % (24 * time.Hour) / time.Hour)
	minutes := int(diff % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// WinChance is the probability of a single entrant winning any prize, in
// percent with two decimals.
func WinChance(slots, participants int) decimal.Decimal {
	if participants <= 0 {
		return decimal.Zero
	}
	winners := min(slots, participants)
	return decimal.NewFromInt(int64(winners)).
		Div(decimal.NewFromInt(int64(participants))).
		Mul(hundred).
		Round(2)
}

func writePrizes(b *strings.Builder, prizes []domain.Prize) {
	b.WriteString("🎁 Prizes:\n")
	for _, p := range prizes {
		fmt.Fprintf(b, "  • %s × %d\n", esc(p.Name), p.Count)
	}
}

// Announcement is the group message of an active lottery.
func (r *Renderer) Announcement(l domain.Lottery, participants int, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎊 <b>%s</b>\n\n", esc(l.Title))
	fmt.Fprintf(&b, "🔑 Send <b>%s</b> in this chat to join\n", esc(l.Keyword))
	writePrizes(&b, l.Prizes)
	fmt.Fprintf(&b, "⏰ Draw at: %s\n", r.formatTime(l.ScheduledEndTime))
	fmt.Fprintf(&b, "⏱️ Time left: %s\n\n", TimeLeft(l.ScheduledEndTime, now))
	fmt.Fprintf(&b, "👥 Participants: %d", participants)
	if participants > 0 {
		fmt.Fprintf(&b, "\n🎯 Win chance: %s%%", WinChance(l.TotalWinnerSlots, participants).String())
	}
	return b.String()
}

// Cancelled replaces the announcement of a lottery nobody entered.
func (r *Renderer) Cancelled(l domain.Lottery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎊 <b>%s</b> (ended)\n\n", esc(l.Title))
	fmt.Fprintf(&b, "🔑 Keyword: %s\n", esc(l.Keyword))
	fmt.Fprintf(&b, "⏰ Draw at: %s\n\n", r.formatTime(l.ScheduledEndTime))
	b.WriteString("❌ Nobody joined, the lottery was cancelled")
	return b.String()
}

// Ended replaces the announcement once winners are drawn.
func (r *Renderer) Ended(o *domain.DrawOutcome) string {
	l := o.Lottery
	var b strings.Builder
	fmt.Fprintf(&b, "🎊 <b>%s</b> (ended)\n\n", esc(l.Title))
	fmt.Fprintf(&b, "🔑 Keyword: %s\n", esc(l.Keyword))
	writePrizes(&b, l.Prizes)
	fmt.Fprintf(&b, "⏰ Draw at: %s\n", r.formatTime(l.ScheduledEndTime))
	if l.EndedAt != nil {
		fmt.Fprintf(&b, "🏁 Ended: %s\n", r.formatTime(*l.EndedAt))
	}
	fmt.Fprintf(&b, "\n👥 Participants: %d\n🏆 Winners: %d", len(o.Participants), len(o.Winners))
	return b.String()
}

// Results lists the winners grouped by prize tier in declaration order.
func (r *Renderer) Results(o *domain.DrawOutcome) string {
	users := make(map[int64]domain.User, len(o.Participants))
	for _, p := range o.Participants {
		users[p.UserID] = p.User
	}
	byPrize := make(map[string][]domain.Assignment)
	for _, a := range o.Winners {
		byPrize[a.PrizeName] = append(byPrize[a.PrizeName], a)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎉 <b>%s</b> results\n", esc(o.Lottery.Title))
	seen := make(map[string]bool)
	for _, p := range o.Lottery.Prizes {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		winners := byPrize[p.Name]
		if len(winners) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n🏆 <b>%s</b>\n", esc(p.Name))
		for _, a := range winners {
			u, ok := users[a.UserID]
			if !ok || u.ID == 0 {
				u = domain.User{ID: a.UserID}
			}
			fmt.Fprintf(&b, "  • %s\n", mention(u))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// WinnerNotice is sent privately to each winner.
func (r *Renderer) WinnerNotice(l domain.Lottery, prize string) string {
	return fmt.Sprintf("🎉 <b>Congratulations!</b>\n\n🎊 Lottery: %s\n🏆 Prize: %s\n\nContact the organizer to claim it.",
		esc(l.Title), esc(prize))
}

// Joined confirms a new entry privately.
func (r *Renderer) Joined(l domain.Lottery) string {
	return fmt.Sprintf("✅ <b>You are in!</b>\n\n🎊 Lottery: %s\n⏰ Draw at: %s\n\nGood luck! 🍀",
		esc(l.Title), r.formatTime(l.ScheduledEndTime))
}

// AlreadyJoined answers a repeated keyword.
func (r *Renderer) AlreadyJoined(l domain.Lottery) string {
	return fmt.Sprintf("ℹ️ You already entered %s\n\n⏰ Draw at: %s",
		esc(l.Title), r.formatTime(l.ScheduledEndTime))
}

// Created confirms a finished wizard to the admin.
func (r *Renderer) Created(l domain.Lottery) string {
	var b strings.Builder
	b.WriteString("✅ <b>Lottery created</b>\n\n")
	fmt.Fprintf(&b, "📝 Title: %s\n", esc(l.Title))
	fmt.Fprintf(&b, "🔑 Keyword: %s\n", esc(l.Keyword))
	writePrizes(&b, l.Prizes)
	fmt.Fprintf(&b, "⏰ Draw at: %s\n\n", r.formatTime(l.ScheduledEndTime))
	b.WriteString("The announcement was posted to the group.")
	return b.String()
}

// Management is the admin's detail view of one lottery.
func (r *Renderer) Management(l domain.Lottery, groupTitle string, participants int, now time.Time) string {
	status := "active"
	if !l.IsActive() {
		status = "ended"
	}
	if groupTitle == "" {
		groupTitle = "unknown group"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎊 <b>%s</b>\n\n", esc(l.Title))
	fmt.Fprintf(&b, "📍 Group: %s\n", esc(groupTitle))
	fmt.Fprintf(&b, "🔑 Keyword: %s\n", esc(l.Keyword))
	fmt.Fprintf(&b, "👥 Participants: %d\n", participants)
	fmt.Fprintf(&b, "⏰ Draw at: %s\n", r.formatTime(l.ScheduledEndTime))
	fmt.Fprintf(&b, "⏱️ Time left: %s\n", TimeLeft(l.ScheduledEndTime, now))
	fmt.Fprintf(&b, "📊 Status: %s", status)
	return b.String()
}

// SenderLabel identifies the author of a relayed message for the admin.
func SenderLabel(u domain.User) string {
	parts := []string{"👤 " + esc(u.DisplayName())}
	if h := u.Handle(); h != "" {
		parts = append(parts, esc(h))
	}
	parts = append(parts, fmt.Sprintf("<code>%d</code>", u.ID))
	return strings.Join(parts, " · ") + "\n↩️ Reply to this message to answer"
}

func mention(u domain.User) string {
	name := esc(u.DisplayName())
	if h := u.Handle(); h != "" {
		return name + " " + esc(h)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, name)
}
