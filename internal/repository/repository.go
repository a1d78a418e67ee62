package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository wraps the Postgres-backed stores: the rating log, the
// watchlist and externally supplied demographics.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}
