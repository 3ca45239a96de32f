package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres implementation of the settings, chat and lottery
// repositories.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}
