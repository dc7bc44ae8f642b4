package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/planwise/sprintbot/internal/model"
)

// CreateUser inserts a user and fills in its assigned ID.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (telegram_id, name, role) VALUES (?, ?, ?)`,
		sql.NullInt64{Int64: u.TelegramID, Valid: u.TelegramID != 0},
		u.Name, u.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	return nil
}

// UserByID retrieves a user. Returns (nil, nil) if the id is unknown.
func (s *Store) UserByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := &model.User{}
	var telegramID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, name, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &telegramID, &u.Name, &u.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if telegramID.Valid {
		u.TelegramID = telegramID.Int64
	}
	return u, nil
}

// AllUsers returns every registered user.
func (s *Store) AllUsers(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, telegram_id, name, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var telegramID sql.NullInt64
		if err := rows.Scan(&u.ID, &telegramID, &u.Name, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if telegramID.Valid {
			u.TelegramID = telegramID.Int64
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateUser overwrites the user with the given id.
func (s *Store) UpdateUser(ctx context.Context, id int64, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET telegram_id = ?, name = ?, role = ? WHERE id = ?`,
		sql.NullInt64{Int64: u.TelegramID, Valid: u.TelegramID != 0},
		u.Name, u.Role, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %d", id)
	}
	return nil
}

// DeleteUser removes a user by id.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %d", id)
	}
	return nil
}
