// Package model holds the domain records shared by the bot, the store
// and the management API.
package model

import "time"

// TaskState enumerates the lifecycle states of a task.
type TaskState string

const (
	StateTodo       TaskState = "TODO"
	StateInProgress TaskState = "IN_PROGRESS"
	StateBlocked    TaskState = "BLOCKED"
	StateDone       TaskState = "DONE"
)

// Valid reports whether s is one of the known task states.
func (s TaskState) Valid() bool {
	switch s {
	case StateTodo, StateInProgress, StateBlocked, StateDone:
		return true
	}
	return false
}

// Task is a unit of sprint work assigned to a single user.
type Task struct {
	ID             int64
	Description    string
	State          TaskState
	HoursEstimated int
	HoursReal      int // 0 = not reported yet
	StoryPoints    int
	SprintID       int64 // 0 = no sprint
	AssignedTo     int64
	CreatedAt      time.Time
	FinishesAt     time.Time // zero = no due date
	UpdatedAt      time.Time
}

// User is a registered member of the organization. TelegramID links the
// row to a chat-platform account; it is 0 until the member is onboarded.
type User struct {
	ID         int64
	TelegramID int64
	Name       string
	Role       string
}

// Sprint is a fixed-length iteration tasks can be grouped under.
type Sprint struct {
	ID       int64
	Name     string
	StartsAt time.Time
	EndsAt   time.Time
}
