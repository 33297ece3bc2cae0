// Package user implements the actor directory lookups the engines need.
package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/adapter/postgres"
)

// Repo provides user lookups backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new user repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const existsSQL = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

// Exists reports whether a user with the given ID is registered.
func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var exists bool
	if err := querier.QueryRow(ctx, existsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}

	return exists, nil
}
