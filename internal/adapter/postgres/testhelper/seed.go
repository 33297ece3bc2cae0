package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modoo/community-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user row and returns its ID.
func SeedUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, nickname) VALUES ($1, $2)`,
		id, "tester-"+uniqueSuffix(),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser: %v", err)
	}

	return id
}

// SeedBoardPost creates a board post owned by authorID and returns its ID.
func SeedBoardPost(t *testing.T, pool *pgxpool.Pool, authorID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO board_posts (id, author_id, title) VALUES ($1, $2, $3)`,
		id, authorID, "post-"+uniqueSuffix(),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedBoardPost: %v", err)
	}

	return id
}

// SeedDiary creates a diary owned by authorID within the given period and
// returns its ID.
func SeedDiary(t *testing.T, pool *pgxpool.Pool, authorID uuid.UUID, period domain.Period) uuid.UUID {
	t.Helper()

	id := uuid.New()
	createdAt := time.Date(period.Year, period.Month, 10, 12, 0, 0, 0, time.UTC)
	_, err := pool.Exec(context.Background(),
		`INSERT INTO diaries (id, author_id, title, created_at) VALUES ($1, $2, $3, $4)`,
		id, authorID, "diary-"+uniqueSuffix(), createdAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDiary: %v", err)
	}

	return id
}

// SeedOdaProject creates an ODA project in a category and returns its ID.
func SeedOdaProject(t *testing.T, pool *pgxpool.Pool, category string, matchScore int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO oda_projects (id, category, name, match_score) VALUES ($1, $2, $3, $4)`,
		id, category, "project-"+uniqueSuffix(), matchScore,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedOdaProject: %v", err)
	}

	return id
}
