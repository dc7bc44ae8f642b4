package bot

import (
	"context"

	"github.com/planwise/sprintbot/internal/model"
)

// TaskStore is the storage contract the handlers consume. Reads of unknown
// ids return (nil, nil).
type TaskStore interface {
	TaskByID(ctx context.Context, id int64) (*model.Task, error)
	TasksByAssignee(ctx context.Context, userID int64) ([]model.Task, error)
	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, id int64, t *model.Task) error
}

// Directory lists all registered identities; the authenticator scans it on
// cache misses.
type Directory interface {
	AllUsers(ctx context.Context) ([]model.User, error)
}
