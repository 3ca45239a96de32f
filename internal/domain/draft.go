package domain

import "time"

// DraftStep names the wizard step a Draft is waiting in.
type DraftStep string

const (
	StepTitle      DraftStep = "waiting_title"
	StepPrizeName  DraftStep = "waiting_prize_name"
	StepPrizeCount DraftStep = "waiting_prize_count"
	StepKeyword    DraftStep = "waiting_keyword"
	StepDuration   DraftStep = "waiting_duration"
)

// Draft is an in-progress lottery creation session. Each step has its own
// type carrying only the fields collected so far.
type Draft interface {
	Step() DraftStep
	Meta() DraftMeta
	touch(at time.Time) Draft
}

// DraftMeta is shared by every step.
type DraftMeta struct {
	UserID    int64
	GroupID   int64
	UpdatedAt time.Time
}

func (m DraftMeta) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(m.UpdatedAt) > ttl
}

type AwaitingTitle struct {
	DraftMeta
}

type AwaitingPrizeName struct {
	DraftMeta
	Title  string
	Prizes []Prize
}

type AwaitingPrizeCount struct {
	DraftMeta
	Title     string
	Prizes    []Prize
	PrizeName string
}

type AwaitingKeyword struct {
	DraftMeta
	Title  string
	Prizes []Prize
}

type AwaitingDuration struct {
	DraftMeta
	Title   string
	Prizes  []Prize
	Keyword string
}

func (d AwaitingTitle) Step() DraftStep      { return StepTitle }
func (d AwaitingPrizeName) Step() DraftStep  { return StepPrizeName }
func (d AwaitingPrizeCount) Step() DraftStep { return StepPrizeCount }
func (d AwaitingKeyword) Step() DraftStep    { return StepKeyword }
func (d AwaitingDuration) Step() DraftStep   { return StepDuration }

func (d AwaitingTitle) Meta() DraftMeta      { return d.DraftMeta }
func (d AwaitingPrizeName) Meta() DraftMeta  { return d.DraftMeta }
func (d AwaitingPrizeCount) Meta() DraftMeta { return d.DraftMeta }
func (d AwaitingKeyword) Meta() DraftMeta    { return d.DraftMeta }
func (d AwaitingDuration) Meta() DraftMeta   { return d.DraftMeta }

func (d AwaitingTitle) touch(at time.Time) Draft      { d.UpdatedAt = at; return d }
func (d AwaitingPrizeName) touch(at time.Time) Draft  { d.UpdatedAt = at; return d }
func (d AwaitingPrizeCount) touch(at time.Time) Draft { d.UpdatedAt = at; return d }
func (d AwaitingKeyword) touch(at time.Time) Draft    { d.UpdatedAt = at; return d }
func (d AwaitingDuration) touch(at time.Time) Draft   { d.UpdatedAt = at; return d }

// NewDraft starts a session for userID targeting groupID.
func NewDraft(userID, groupID int64, at time.Time) Draft {
	return AwaitingTitle{DraftMeta{UserID: userID, GroupID: groupID, UpdatedAt: at}}
}

// Touch returns d with its inactivity window restarted at at.
func Touch(d Draft, at time.Time) Draft {
	return d.touch(at)
}

// withPrize copies prizes so drafts never share a backing array.
func withPrize(prizes []Prize, p Prize) []Prize {
	out := make([]Prize, 0, len(prizes)+1)
	out = append(out, prizes...)
	return append(out, p)
}

func (d AwaitingTitle) WithTitle(title string) AwaitingPrizeName {
	return AwaitingPrizeName{DraftMeta: d.DraftMeta, Title: title}
}

func (d AwaitingPrizeName) WithPrizeName(name string) AwaitingPrizeCount {
	return AwaitingPrizeCount{DraftMeta: d.DraftMeta, Title: d.Title, Prizes: d.Prizes, PrizeName: name}
}

func (d AwaitingPrizeName) Next() (AwaitingKeyword, error) {
	if len(d.Prizes) == 0 {
		return AwaitingKeyword{}, ErrNoPrizes
	}
	return AwaitingKeyword{DraftMeta: d.DraftMeta, Title: d.Title, Prizes: d.Prizes}, nil
}

func (d AwaitingPrizeCount) WithCount(count int) (AwaitingPrizeName, error) {
	if count <= 0 {
		return AwaitingPrizeName{}, ErrInvalidPrizeCount
	}
	return AwaitingPrizeName{
		DraftMeta: d.DraftMeta,
		Title:     d.Title,
		Prizes:    withPrize(d.Prizes, Prize{Name: d.PrizeName, Count: count}),
	}, nil
}

func (d AwaitingKeyword) WithKeyword(keyword string) AwaitingDuration {
	return AwaitingDuration{DraftMeta: d.DraftMeta, Title: d.Title, Prizes: d.Prizes, Keyword: keyword}
}
