package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/set-night/relaybot/internal/domain"
)

// draftRecord is the stored form of every draft step.
type draftRecord struct {
	Step      domain.DraftStep `json:"step"`
	UserID    int64            `json:"user_id"`
	GroupID   int64            `json:"group_id"`
	UpdatedAt time.Time        `json:"updated_at"`
	Title     string           `json:"title,omitempty"`
	Prizes    []domain.Prize   `json:"prizes,omitempty"`
	PrizeName string           `json:"prize_name,omitempty"`
	Keyword   string           `json:"keyword,omitempty"`
}

func encodeDraft(d domain.Draft) ([]byte, error) {
	m := d.Meta()
	rec := draftRecord{Step: d.Step(), UserID: m.UserID, GroupID: m.GroupID, UpdatedAt: m.UpdatedAt}
	switch d := d.(type) {
	case domain.AwaitingTitle:
	case domain.AwaitingPrizeName:
		rec.Title, rec.Prizes = d.Title, d.Prizes
	case domain.AwaitingPrizeCount:
		rec.Title, rec.Prizes, rec.PrizeName = d.Title, d.Prizes, d.PrizeName
	case domain.AwaitingKeyword:
		rec.Title, rec.Prizes = d.Title, d.Prizes
	case domain.AwaitingDuration:
		rec.Title, rec.Prizes, rec.Keyword = d.Title, d.Prizes, d.Keyword
	default:
		return nil, fmt.Errorf("unknown draft type %T", d)
	}
	return json.Marshal(rec)
}

func decodeDraft(data []byte) (domain.Draft, error) {
	var rec draftRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	meta := domain.DraftMeta{UserID: rec.UserID, GroupID: rec.GroupID, UpdatedAt: rec.UpdatedAt}
	switch rec.Step {
	case domain.StepTitle:
		return domain.AwaitingTitle{DraftMeta: meta}, nil
	case domain.StepPrizeName:
		return domain.AwaitingPrizeName{DraftMeta: meta, Title: rec.Title, Prizes: rec.Prizes}, nil
	case domain.StepPrizeCount:
		return domain.AwaitingPrizeCount{DraftMeta: meta, Title: rec.Title, Prizes: rec.Prizes, PrizeName: rec.PrizeName}, nil
	case domain.StepKeyword:
		return domain.AwaitingKeyword{DraftMeta: meta, Title: rec.Title, Prizes: rec.Prizes}, nil
	case domain.StepDuration:
		return domain.AwaitingDuration{DraftMeta: meta, Title: rec.Title, Prizes: rec.Prizes, Keyword: rec.Keyword}, nil
	default:
		return nil, fmt.Errorf("decode draft: unknown step %q", rec.Step)
	}
}
