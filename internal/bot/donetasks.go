package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/planwise/sprintbot/internal/model"
)

// DoneTasksCommand summarizes the caller's completed tasks per sprint.
type DoneTasksCommand struct {
	resp  Responder
	tasks TaskStore
}

// NewDoneTasksCommand creates the /donetasks handler.
func NewDoneTasksCommand(resp Responder, tasks TaskStore) *DoneTasksCommand {
	return &DoneTasksCommand{resp: resp, tasks: tasks}
}

func (c *DoneTasksCommand) Description() string {
	return "Shows the number of completed tasks per sprint for you."
}

func (c *DoneTasksCommand) ExecuteAuthenticated(ctx context.Context, cc *Context) Result {
	tasks, err := c.tasks.TasksByAssignee(ctx, cc.AuthenticatedUser().ID)
	if err != nil {
		c.resp.logger.Error().Err(err).Msg("task list failed")
		c.resp.reply(cc, "Couldn't fetch your tasks right now. Please try again.")
		return Finish()
	}

	bySprint := make(map[int64]int)
	for i := range tasks {
		if tasks[i].State == model.StateDone {
			bySprint[tasks[i].SprintID]++
		}
	}

	if len(bySprint) == 0 {
		c.resp.replyMarkdown(cc, "You haven't completed any tasks yet\\.")
		return Finish()
	}

	sprintIDs := make([]int64, 0, len(bySprint))
	for id := range bySprint {
		sprintIDs = append(sprintIDs, id)
	}
	sort.Slice(sprintIDs, func(i, j int) bool { return sprintIDs[i] < sprintIDs[j] })

	var b strings.Builder
	b.WriteString("*Completed Tasks by Sprint:*\n\n")
	for _, id := range sprintIDs {
		count := bySprint[id]
		plural := ""
		if count > 1 {
			plural = "s"
		}
		name := fmt.Sprintf("Sprint %d", id)
		if id == 0 {
			name = "No sprint"
		}
		line := fmt.Sprintf("%s: %d completed task%s", name, count, plural)
		b.WriteString(escapeMarkdownV2(line))
		b.WriteString("\n")
	}

	c.resp.replyMarkdown(cc, b.String())
	return Finish()
}
