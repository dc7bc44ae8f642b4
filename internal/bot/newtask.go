package bot

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/planwise/sprintbot/internal/model"
)

// TaskNewCommand is the task-creation wizard. It collects, one message at a
// time, a description, a due date, an hour estimate and story points, then
// persists the task in a single write.
//
// The per-chat draft tracks progress: fields are filled strictly in order
// and the first unset field decides which step the next message answers.
type TaskNewCommand struct {
	resp  Responder
	tasks TaskStore

	mu     sync.Mutex
	drafts map[int64]*model.Task
}

// NewTaskNewCommand creates the /tasknew handler.
func NewTaskNewCommand(resp Responder, tasks TaskStore) *TaskNewCommand {
	return &TaskNewCommand{
		resp:   resp,
		tasks:  tasks,
		drafts: make(map[int64]*model.Task),
	}
}

func (c *TaskNewCommand) Description() string {
	return "Create a new task and assign it to yourself"
}

func (c *TaskNewCommand) ExecuteAuthenticated(ctx context.Context, cc *Context) Result {
	chatID := cc.ChatID()

	if cc.Cancelled() {
		c.mu.Lock()
		delete(c.drafts, chatID)
		c.mu.Unlock()
		c.resp.reply(cc, "Operation cancelled.")
		return Finish()
	}

	c.mu.Lock()
	draft, started := c.drafts[chatID]
	if !started {
		draft = &model.Task{AssignedTo: cc.AuthenticatedUser().ID}
		c.drafts[chatID] = draft
	}
	c.mu.Unlock()

	if !started {
		c.resp.reply(cc, "Give me a description for your new task!")
		return Continue()
	}

	switch {
	case draft.Description == "":
		return c.stepDescription(cc, draft)
	case draft.FinishesAt.IsZero():
		return c.stepDueDate(cc, draft)
	case draft.HoursEstimated == 0:
		return c.stepEstimate(cc, draft)
	default:
		return c.stepStoryPoints(ctx, cc, draft)
	}
}

func (c *TaskNewCommand) stepDescription(cc *Context, draft *model.Task) Result {
	text := strings.TrimSpace(cc.Event.Text)
	if text == "" {
		c.resp.reply(cc, "Please specify a description.")
		return Continue()
	}

	draft.Description = text
	c.resp.reply(cc, "Now, a delivery date in the format YYYY-MM-DD...")
	return Continue()
}

func (c *TaskNewCommand) stepDueDate(cc *Context, draft *model.Task) Result {
	due, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(cc.Event.Text), time.UTC)
	if err != nil {
		c.resp.reply(cc, "Invalid date format. Please use YYYY-MM-DD! (e.g 2025-03-15)")
		return Continue()
	}

	draft.FinishesAt = due
	draft.CreatedAt = time.Now()
	draft.State = model.StateTodo
	c.resp.reply(cc, "Finally, give me an estimation of how long you'll take to complete this task in hours...")
	return Continue()
}

func (c *TaskNewCommand) stepEstimate(cc *Context, draft *model.Task) Result {
	estimate, err := strconv.Atoi(strings.TrimSpace(cc.Event.Text))
	switch {
	case err != nil || estimate < 1:
		c.resp.reply(cc, "Hours must be a positive number between 1 and 4.")
		c.resp.reply(cc, "Give me an estimation between 1 and 4 hours...")
		return Continue()
	case estimate > 4:
		c.resp.reply(cc, "Due to internal policy no task may exceed 4 hours.")
		c.resp.reply(cc, "Give me an estimation between 1 and 4 hours...")
		return Continue()
	}

	draft.HoursEstimated = estimate
	c.resp.reply(cc, "Story Points (1-13):")
	return Continue()
}

func (c *TaskNewCommand) stepStoryPoints(ctx context.Context, cc *Context, draft *model.Task) Result {
	points, err := strconv.Atoi(strings.TrimSpace(cc.Event.Text))
	if err != nil || points < 1 || points > 13 {
		c.resp.reply(cc, "Story points must be a number between 1 and 13.")
		return Continue()
	}

	draft.StoryPoints = points
	if err := c.tasks.CreateTask(ctx, draft); err != nil {
		// The draft stays; the user can resend the points to retry.
		draft.StoryPoints = 0
		c.resp.logger.Error().Err(err).Msg("task create failed")
		c.resp.reply(cc, "Couldn't save your task right now. Please try again.")
		return Continue()
	}

	c.mu.Lock()
	delete(c.drafts, cc.ChatID())
	c.mu.Unlock()

	c.resp.reply(cc, "Item added!")
	return Finish()
}
