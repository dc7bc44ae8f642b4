package mgmt

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/planwise/sprintbot/internal/model"
	"github.com/planwise/sprintbot/internal/store"
)

// Invalidator drops a cached identity resolution so a user provisioned (or
// relinked) through this API can authenticate without a bot restart.
type Invalidator interface {
	Invalidate(telegramID int64) bool
}

type handlers struct {
	store       *store.Store
	invalidator Invalidator
	logger      zerolog.Logger
}

func newHandlers(st *store.Store, invalidator Invalidator, logger zerolog.Logger) *handlers {
	return &handlers{store: st, invalidator: invalidator, logger: logger}
}

// taskDTO is the wire shape of a task.
type taskDTO struct {
	ID             int64  `json:"id"`
	Description    string `json:"description"`
	State          string `json:"state"`
	HoursEstimated int    `json:"hours_estimated"`
	HoursReal      int    `json:"hours_real,omitempty"`
	StoryPoints    int    `json:"story_points"`
	SprintID       int64  `json:"sprint_id,omitempty"`
	AssignedTo     int64  `json:"assigned_to"`
	CreatedAt      string `json:"created_at,omitempty"`
	FinishesAt     string `json:"finishes_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

func toTaskDTO(t *model.Task) taskDTO {
	dto := taskDTO{
		ID:             t.ID,
		Description:    t.Description,
		State:          string(t.State),
		HoursEstimated: t.HoursEstimated,
		HoursReal:      t.HoursReal,
		StoryPoints:    t.StoryPoints,
		SprintID:       t.SprintID,
		AssignedTo:     t.AssignedTo,
	}
	if !t.CreatedAt.IsZero() {
		dto.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	if !t.FinishesAt.IsZero() {
		dto.FinishesAt = t.FinishesAt.Format("2006-01-02")
	}
	if !t.UpdatedAt.IsZero() {
		dto.UpdatedAt = t.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func (dto *taskDTO) toModel() (*model.Task, error) {
	t := &model.Task{
		ID:             dto.ID,
		Description:    dto.Description,
		State:          model.TaskState(dto.State),
		HoursEstimated: dto.HoursEstimated,
		HoursReal:      dto.HoursReal,
		StoryPoints:    dto.StoryPoints,
		SprintID:       dto.SprintID,
		AssignedTo:     dto.AssignedTo,
	}
	if t.State == "" {
		t.State = model.StateTodo
	}
	if !t.State.Valid() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid task state")
	}
	if dto.FinishesAt != "" {
		due, err := time.ParseInLocation("2006-01-02", dto.FinishesAt, time.UTC)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "finishes_at must be YYYY-MM-DD")
		}
		t.FinishesAt = due
	}
	return t, nil
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id must be a number")
	}
	return id, nil
}

func (h *handlers) listTasks(c *fiber.Ctx) error {
	var (
		tasks []model.Task
		err   error
	)
	if assignee := c.QueryInt("assigned_to"); assignee > 0 {
		tasks, err = h.store.TasksByAssignee(c.Context(), int64(assignee))
	} else {
		tasks, err = h.store.ListTasks(c.Context())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	dtos := make([]taskDTO, 0, len(tasks))
	for i := range tasks {
		dtos = append(dtos, toTaskDTO(&tasks[i]))
	}
	return c.JSON(dtos)
}

func (h *handlers) getTask(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	task, err := h.store.TaskByID(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if task == nil {
		return fiber.NewError(fiber.StatusNotFound, "task not found")
	}
	return c.JSON(toTaskDTO(task))
}

func (h *handlers) createTask(c *fiber.Ctx) error {
	var dto taskDTO
	if err := c.BodyParser(&dto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(dto.Description) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "description is required")
	}
	task, err := dto.toModel()
	if err != nil {
		return err
	}
	if err := h.store.CreateTask(c.Context(), task); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskDTO(task))
}

func (h *handlers) updateTask(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var dto taskDTO
	if err := c.BodyParser(&dto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	task, err := dto.toModel()
	if err != nil {
		return err
	}
	if err := h.store.UpdateTask(c.Context(), id, task); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return fiber.NewError(fiber.StatusNotFound, "task not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	task.ID = id
	return c.JSON(toTaskDTO(task))
}

func (h *handlers) deleteTask(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteTask(c.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return fiber.NewError(fiber.StatusNotFound, "task not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// userDTO is the wire shape of a user.
type userDTO struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegram_id,omitempty"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{ID: u.ID, TelegramID: u.TelegramID, Name: u.Name, Role: u.Role}
}

func (h *handlers) listUsers(c *fiber.Ctx) error {
	users, err := h.store.AllUsers(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	dtos := make([]userDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, toUserDTO(&users[i]))
	}
	return c.JSON(dtos)
}

func (h *handlers) getUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.store.UserByID(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if user == nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	return c.JSON(toUserDTO(user))
}

func (h *handlers) createUser(c *fiber.Ctx) error {
	var dto userDTO
	if err := c.BodyParser(&dto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(dto.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if dto.Role == "" {
		dto.Role = "developer"
	}
	user := &model.User{TelegramID: dto.TelegramID, Name: dto.Name, Role: dto.Role}
	if err := h.store.CreateUser(c.Context(), user); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	h.invalidate(user.TelegramID)
	return c.Status(fiber.StatusCreated).JSON(toUserDTO(user))
}

func (h *handlers) updateUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var dto userDTO
	if err := c.BodyParser(&dto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	// The old link must be invalidated too, or a relinked Telegram account
	// keeps resolving to the stale user until restart.
	old, err := h.store.UserByID(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if old == nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	user := &model.User{TelegramID: dto.TelegramID, Name: dto.Name, Role: dto.Role}
	if err := h.store.UpdateUser(c.Context(), id, user); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	user.ID = id
	h.invalidate(old.TelegramID)
	h.invalidate(user.TelegramID)
	return c.JSON(toUserDTO(user))
}

func (h *handlers) deleteUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	old, err := h.store.UserByID(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if old == nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	if err := h.store.DeleteUser(c.Context(), id); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	h.invalidate(old.TelegramID)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) invalidate(telegramID int64) {
	if h.invalidator == nil || telegramID == 0 {
		return
	}
	h.invalidator.Invalidate(telegramID)
}

// sprintDTO is the wire shape of a sprint.
type sprintDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

func (h *handlers) listSprints(c *fiber.Ctx) error {
	sprints, err := h.store.ListSprints(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	dtos := make([]sprintDTO, 0, len(sprints))
	for _, sp := range sprints {
		dtos = append(dtos, sprintDTO{
			ID:       sp.ID,
			Name:     sp.Name,
			StartsAt: sp.StartsAt.Format("2006-01-02"),
			EndsAt:   sp.EndsAt.Format("2006-01-02"),
		})
	}
	return c.JSON(dtos)
}

func (h *handlers) createSprint(c *fiber.Ctx) error {
	var dto sprintDTO
	if err := c.BodyParser(&dto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(dto.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	startsAt, err := time.ParseInLocation("2006-01-02", dto.StartsAt, time.UTC)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "starts_at must be YYYY-MM-DD")
	}
	endsAt, err := time.ParseInLocation("2006-01-02", dto.EndsAt, time.UTC)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ends_at must be YYYY-MM-DD")
	}
	sprint := &model.Sprint{Name: dto.Name, StartsAt: startsAt, EndsAt: endsAt}
	if err := h.store.CreateSprint(c.Context(), sprint); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(sprintDTO{
		ID:       sprint.ID,
		Name:     sprint.Name,
		StartsAt: sprint.StartsAt.Format("2006-01-02"),
		EndsAt:   sprint.EndsAt.Format("2006-01-02"),
	})
}
