package domain

import "time"

// PendingLogin is an in-flight password challenge started by a bare /login.
type PendingLogin struct {
	UserID   int64     `json:"user_id"`
	ChatID   int64     `json:"chat_id"`
	IssuedAt time.Time `json:"issued_at"`
}

func (p *PendingLogin) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.IssuedAt) > ttl
}
