package service

import (
	"math/rand/v2"

	"github.com/set-night/relaybot/internal/domain"
)

// ShuffleFunc permutes n elements through swap, like rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// Allocate draws winners: participants are put in uniformly random order,
// then each prize tier in declaration order takes the next min(count,
// remaining) of them. A participant wins at most once.
func Allocate(participants []domain.Participant, prizes []domain.Prize, shuffle ShuffleFunc) []domain.Assignment {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	pool := make([]domain.Participant, len(participants))
	copy(pool, participants)
	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	var winners []domain.Assignment
	next := 0
	for _, prize := range prizes {
		take := min(prize.Count, len(pool)-next)
		for _, p := range pool[next : next+take] {
			winners = append(winners, domain.Assignment{
				ParticipantID: p.ID,
				UserID:        p.UserID,
				PrizeName:     prize.Name,
			})
		}
		next += take
		if next == len(pool) {
			break
		}
	}
	return winners
}
