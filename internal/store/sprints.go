package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/planwise/sprintbot/internal/model"
)

// CreateSprint inserts a sprint and fills in its assigned ID.
func (s *Store) CreateSprint(ctx context.Context, sp *model.Sprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sprints (name, starts_at, ends_at) VALUES (?, ?, ?)`,
		sp.Name, sp.StartsAt.UnixMilli(), sp.EndsAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create sprint: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read sprint id: %w", err)
	}
	sp.ID = id
	return nil
}

// SprintByID retrieves a sprint. Returns (nil, nil) if the id is unknown.
func (s *Store) SprintByID(ctx context.Context, id int64) (*model.Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp := &model.Sprint{}
	var startsAt, endsAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, starts_at, ends_at FROM sprints WHERE id = ?`, id).
		Scan(&sp.ID, &sp.Name, &startsAt, &endsAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sprint: %w", err)
	}
	sp.StartsAt = time.UnixMilli(startsAt).UTC()
	sp.EndsAt = time.UnixMilli(endsAt).UTC()
	return sp, nil
}

// ListSprints returns every sprint ordered by start date.
func (s *Store) ListSprints(ctx context.Context) ([]model.Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, starts_at, ends_at FROM sprints ORDER BY starts_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	var sprints []model.Sprint
	for rows.Next() {
		var sp model.Sprint
		var startsAt, endsAt int64
		if err := rows.Scan(&sp.ID, &sp.Name, &startsAt, &endsAt); err != nil {
			return nil, fmt.Errorf("failed to scan sprint: %w", err)
		}
		sp.StartsAt = time.UnixMilli(startsAt).UTC()
		sp.EndsAt = time.UnixMilli(endsAt).UTC()
		sprints = append(sprints, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sprints: %w", err)
	}
	return sprints, nil
}
