package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/planwise/sprintbot/internal/model"
)

const taskColumns = `id, description, state, hours_estimated, hours_real,
	story_points, sprint_id, assigned_to, created_at, finishes_at, updated_at`

// CreateTask inserts a task and fills in its assigned ID.
func (s *Store) CreateTask(ctx context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (description, state, hours_estimated, hours_real,
			story_points, sprint_id, assigned_to, created_at, finishes_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Description, string(t.State), t.HoursEstimated,
		sql.NullInt64{Int64: int64(t.HoursReal), Valid: t.HoursReal != 0},
		t.StoryPoints,
		sql.NullInt64{Int64: t.SprintID, Valid: t.SprintID != 0},
		t.AssignedTo, t.CreatedAt.UnixMilli(),
		sql.NullInt64{Int64: t.FinishesAt.UnixMilli(), Valid: !t.FinishesAt.IsZero()},
		t.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}
	t.ID = id
	return nil
}

// TaskByID retrieves a task. Returns (nil, nil) if the id is unknown.
func (s *Store) TaskByID(ctx context.Context, id int64) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// TasksByAssignee lists all tasks assigned to the given user, newest first.
func (s *Store) TasksByAssignee(ctx context.Context, userID int64) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE assigned_to = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// ListTasks returns every task, newest first.
func (s *Store) ListTasks(ctx context.Context) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask overwrites the mutable fields of the task with the given id.
func (s *Store) UpdateTask(ctx context.Context, id int64, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET description = ?, state = ?, hours_estimated = ?, hours_real = ?,
			story_points = ?, sprint_id = ?, assigned_to = ?, finishes_at = ?, updated_at = ?
		WHERE id = ?`,
		t.Description, string(t.State), t.HoursEstimated,
		sql.NullInt64{Int64: int64(t.HoursReal), Valid: t.HoursReal != 0},
		t.StoryPoints,
		sql.NullInt64{Int64: t.SprintID, Valid: t.SprintID != 0},
		t.AssignedTo,
		sql.NullInt64{Int64: t.FinishesAt.UnixMilli(), Valid: !t.FinishesAt.IsZero()},
		t.UpdatedAt.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*model.Task, error) {
	t := &model.Task{}
	var state string
	var hoursReal, sprintID, finishesAt sql.NullInt64
	var createdAt, updatedAt int64

	err := r.Scan(
		&t.ID, &t.Description, &state, &t.HoursEstimated, &hoursReal,
		&t.StoryPoints, &sprintID, &t.AssignedTo, &createdAt, &finishesAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.State = model.TaskState(state)
	if hoursReal.Valid {
		t.HoursReal = int(hoursReal.Int64)
	}
	if sprintID.Valid {
		t.SprintID = sprintID.Int64
	}
	if finishesAt.Valid {
		t.FinishesAt = time.UnixMilli(finishesAt.Int64).UTC()
	}
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	t.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return t, nil
}
