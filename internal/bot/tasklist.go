package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/planwise/sprintbot/internal/model"
)

// TaskListCommand lists the caller's tasks. Each entry links to the task
// view through a deep link, since inline text can't press buttons.
type TaskListCommand struct {
	resp  Responder
	tasks TaskStore
}

// NewTaskListCommand creates the /tasklist handler.
func NewTaskListCommand(resp Responder, tasks TaskStore) *TaskListCommand {
	return &TaskListCommand{resp: resp, tasks: tasks}
}

func (c *TaskListCommand) Description() string {
	return "List all tasks assigned to you in the current sprint."
}

func (c *TaskListCommand) ExecuteAuthenticated(ctx context.Context, cc *Context) Result {
	showAll := cc.HasArgs() && cc.Args[1] == "all"

	tasks, err := c.tasks.TasksByAssignee(ctx, cc.AuthenticatedUser().ID)
	if err != nil {
		c.resp.logger.Error().Err(err).Msg("task list failed")
		c.resp.reply(cc, "Couldn't fetch your tasks right now. Please try again.")
		return Finish()
	}

	var entries []string
	for i := range tasks {
		task := &tasks[i]
		if !showAll && task.State == model.StateDone {
			continue
		}
		entries = append(entries, c.formatTask(cc, task))
	}

	if len(entries) == 0 {
		c.resp.reply(cc, "No items found. Good for you!")
		return Finish()
	}

	c.resp.replyMarkdown(cc, strings.Join(entries, "\n"))
	return Finish()
}

func (c *TaskListCommand) formatTask(cc *Context, task *model.Task) string {
	dueDate := "No due date"
	if !task.FinishesAt.IsZero() {
		dueDate = task.FinishesAt.Format("2006-01-02")
	}
	link := deepLink(cc.BotUsername(), "task", strconv.FormatInt(task.ID, 10))

	return fmt.Sprintf("*%s*\nDue: %s\nState: %s\n[view](%s)\n",
		escapeMarkdownV2(task.Description),
		escapeMarkdownV2(dueDate),
		escapeMarkdownV2(string(task.State)),
		link)
}
