package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/relaybot/internal/domain"
)

const lotteryColumns = `id, group_id, title, keyword, prizes, total_winner_slots, creator_id,
	announcement_message_id, status, scheduled_end_time, ended_at, created_at`

func scanLottery(row pgx.Row) (*domain.Lottery, error) {
	var l domain.Lottery
	var status string
	err := row.Scan(&l.ID, &l.GroupID, &l.Title, &l.Keyword, &l.Prizes, &l.TotalWinnerSlots, &l.CreatorID,
		&l.AnnouncementMessageID, &status, &l.ScheduledEndTime, &l.EndedAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.Status = domain.LotteryStatus(status)
	return &l, nil
}

func (s *Store) queryLotteries(ctx context.Context, sql string, args ...any) ([]domain.Lottery, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lottery
	for rows.Next() {
		l, err := scanLottery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *Store) CreateLottery(ctx context.Context, lottery *domain.Lottery) error {
	if lottery.Status == "" {
		lottery.Status = domain.LotteryStatusActive
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO lotteries (group_id, title, keyword, prizes, total_winner_slots, creator_id,
			announcement_message_id, status, scheduled_end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		lottery.GroupID, lottery.Title, lottery.Keyword, lottery.Prizes, lottery.TotalWinnerSlots,
		lottery.CreatorID, lottery.AnnouncementMessageID, string(lottery.Status), lottery.ScheduledEndTime).
		Scan(&lottery.ID, &lottery.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lottery: %w", err)
	}
	return nil
}

func (s *Store) GetLottery(ctx context.Context, id int64) (*domain.Lottery, error) {
	l, err := scanLottery(s.db.QueryRow(ctx, `SELECT `+lotteryColumns+` FROM lotteries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLotteryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lottery %d: %w", id, err)
	}
	return l, nil
}

func (s *Store) ListActiveLotteries(ctx context.Context) ([]domain.Lottery, error) {
	out, err := s.queryLotteries(ctx, `
		SELECT `+lotteryColumns+` FROM lotteries
		WHERE status = 'active'
		ORDER BY scheduled_end_time`)
	if err != nil {
		return nil, fmt.Errorf("list active lotteries: %w", err)
	}
	return out, nil
}

func (s *Store) ListOverdueLotteries(ctx context.Context, now time.Time) ([]domain.Lottery, error) {
	out, err := s.queryLotteries(ctx, `
		SELECT `+lotteryColumns+` FROM lotteries
		WHERE status = 'active' AND scheduled_end_time < $1
		ORDER BY scheduled_end_time`, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue lotteries: %w", err)
	}
	return out, nil
}

func (s *Store) FindActiveByKeyword(ctx context.Context, groupID int64, keyword string) ([]domain.Lottery, error) {
	out, err := s.queryLotteries(ctx, `
		SELECT `+lotteryColumns+` FROM lotteries
		WHERE group_id = $1 AND keyword = $2 AND status = 'active'
		ORDER BY id`, groupID, keyword)
	if err != nil {
		return nil, fmt.Errorf("find lottery by keyword: %w", err)
	}
	return out, nil
}

func (s *Store) ExtendLottery(ctx context.Context, id int64, extra time.Duration) (*domain.Lottery, error) {
	l, err := scanLottery(s.db.QueryRow(ctx, `
		UPDATE lotteries SET scheduled_end_time = scheduled_end_time + $2::interval
		WHERE id = $1 AND status = 'active'
		RETURNING `+lotteryColumns, id, extra))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLotteryNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("extend lottery %d: %w", id, err)
	}
	return l, nil
}

// AddParticipant relies on UNIQUE (lottery_id, user_id); the pre-insert
// lookup done by callers is not what keeps entries single. FOR SHARE makes
// the insert wait for a concurrent EndLottery and then see the ended status,
// so no entry lands after the draw read its participants.
func (s *Store) AddParticipant(ctx context.Context, lotteryID, userID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO participants (lottery_id, user_id)
		SELECT id, $2 FROM lotteries WHERE id = $1 AND status = 'active' FOR SHARE
		ON CONFLICT (lottery_id, user_id) DO NOTHING`,
		lotteryID, userID)
	if err != nil {
		return false, fmt.Errorf("add participant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) HasParticipant(ctx context.Context, lotteryID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM participants WHERE lottery_id = $1 AND user_id = $2)`,
		lotteryID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

func (s *Store) CountParticipants(ctx context.Context, lotteryID int64) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM participants WHERE lottery_id = $1`, lotteryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

// EndLottery flips the status with a conditional UPDATE and writes the
// winners in the same transaction. A concurrent caller blocks on the row
// lock and then matches no row.
func (s *Store) EndLottery(ctx context.Context, id int64, endedAt time.Time, pick domain.PickFunc) (*domain.DrawOutcome, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	l, err := scanLottery(tx.QueryRow(ctx, `
		UPDATE lotteries SET status = 'ended', ended_at = $2
		WHERE id = $1 AND status = 'active'
		RETURNING `+lotteryColumns, id, endedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLotteryNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("end lottery %d: %w", id, err)
	}

	participants, err := listParticipants(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	winners := pick(*l, participants)
	if len(winners) > 0 {
		batch := &pgx.Batch{}
		for _, w := range winners {
			batch.Queue(`UPDATE participants SET is_winner = true, won_prize_name = $2 WHERE id = $1`,
				w.ParticipantID, w.PrizeName)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("record winners: %w", err)
		}
		byID := make(map[int64]string, len(winners))
		for _, w := range winners {
			byID[w.ParticipantID] = w.PrizeName
		}
		for i := range participants {
			if prize, ok := byID[participants[i].ID]; ok {
				participants[i].IsWinner = true
				participants[i].WonPrizeName = &prize
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit draw: %w", err)
	}
	return &domain.DrawOutcome{Lottery: *l, Participants: participants, Winners: winners}, nil
}

func listParticipants(ctx context.Context, tx pgx.Tx, lotteryID int64) ([]domain.Participant, error) {
	rows, err := tx.Query(ctx, `
		SELECT p.id, p.lottery_id, p.user_id, p.is_winner, p.won_prize_name, p.created_at,
			coalesce(u.id, 0), coalesce(u.username, ''), coalesce(u.first_name, ''), coalesce(u.last_name, '')
		FROM participants p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.lottery_id = $1
		ORDER BY p.id`, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.LotteryID, &p.UserID, &p.IsWinner, &p.WonPrizeName, &p.CreatedAt,
			&p.User.ID, &p.User.Username, &p.User.FirstName, &p.User.LastName); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
