package domain

import "time"

type LotteryStatus string

const (
	LotteryStatusActive LotteryStatus = "active"
	LotteryStatusEnded  LotteryStatus = "ended"
)

// Prize is one tier of a lottery: Count winners receive Name.
type Prize struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TotalSlots sums the winner counts of all tiers.
func TotalSlots(prizes []Prize) int {
	total := 0
	for _, p := range prizes {
		total += p.Count
	}
	return total
}

type Lottery struct {
	ID                    int64
	GroupID               int64
	Title                 string
	Keyword               string
	Prizes                []Prize
	TotalWinnerSlots      int
	CreatorID             int64
	AnnouncementMessageID int
	Status                LotteryStatus
	ScheduledEndTime      time.Time
	EndedAt               *time.Time
	CreatedAt             time.Time
}

func (l *Lottery) IsActive() bool {
	return l.Status == LotteryStatusActive
}

func (l *Lottery) Overdue(now time.Time) bool {
	return l.IsActive() && !l.ScheduledEndTime.After(now)
}

type Participant struct {
	ID           int64
	LotteryID    int64
	UserID       int64
	IsWinner     bool
	WonPrizeName *string
	CreatedAt    time.Time

	// Loaded from users for rendering; zero when the user row is missing.
	User User
}

// Assignment binds one participant to the prize tier they won.
type Assignment struct {
	ParticipantID int64
	UserID        int64
	PrizeName     string
}

// DrawOutcome is what a completed draw produced. The lottery is already in
// the ended state when an outcome exists.
type DrawOutcome struct {
	Lottery      Lottery
	Participants []Participant
	Winners      []Assignment
}

// PickFunc chooses winners for a lottery while its draw is being committed.
type PickFunc func(lottery Lottery, participants []Participant) []Assignment

// Duration is one of the fixed lottery lengths offered by the wizard.
type Duration string

const (
	DurationHour     Duration = "1h"
	DurationDay      Duration = "1d"
	DurationThreeDay Duration = "3d"
)

var durations = map[Duration]time.Duration{
	DurationHour:     time.Hour,
	DurationDay:      24 * time.Hour,
	DurationThreeDay: 72 * time.Hour,
}

// ParseDuration resolves a duration key from a button press.
func ParseDuration(s string) (time.Duration, error) {
	d, ok := durations[Duration(s)]
	if !ok {
		return 0, ErrInvalidDuration
	}
	return d, nil
}
