package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/planwise/sprintbot/internal/model"
)

// idMessagePattern recovers the task id from the hidden marker message a
// task view starts with.
var idMessagePattern = regexp.MustCompile(`id:(\d+)`)

// taskAction is one inline button on a task view.
type taskAction struct {
	label          string
	callbackData   string
	administrative bool // stubbed actions that don't change task state
}

var (
	actionDone    = taskAction{label: "Done", callbackData: "task_done"}
	actionStart   = taskAction{label: "Start", callbackData: "task_start"}
	actionUndo    = taskAction{label: "Not finished", callbackData: "task_undone"}
	actionBlocked = taskAction{label: "Blocked", callbackData: "task_blocked"}
	actionEdit    = taskAction{label: "Edit", callbackData: "task_edit", administrative: true}
	actionDelete  = taskAction{label: "Delete", callbackData: "task_delete", administrative: true}

	allTaskActions = []taskAction{actionDone, actionStart, actionUndo, actionBlocked, actionEdit, actionDelete}
)

func (a taskAction) button() Button {
	return Button{Label: a.label, Data: a.callbackData}
}

func actionFromCallback(data string) (taskAction, bool) {
	for _, a := range allTaskActions {
		if a.callbackData == data {
			return a, true
		}
	}
	return taskAction{}, false
}

// TaskCommand views and manages a single task. It is registered without a
// slash on purpose: users reach it through deep links (see TaskListCommand)
// and its inline buttons, not by typing it.
//
// A task view is two messages. The first carries the task id in a fixed
// textual pattern; the second replies to it with the rendered task and the
// action keyboard. Buttons carry only static payloads, so a button press is
// correlated back to its task by parsing the id out of the replied-to
// message.
type TaskCommand struct {
	resp  Responder
	tasks TaskStore

	// Tasks pressed "Done" await an hours-taken answer per chat; the state
	// flip is committed only once a valid number arrives.
	mu           sync.Mutex
	pendingHours map[int64]int64 // chat id → task id
}

// NewTaskCommand creates the task view/action handler.
func NewTaskCommand(resp Responder, tasks TaskStore) *TaskCommand {
	return &TaskCommand{
		resp:         resp,
		tasks:        tasks,
		pendingHours: make(map[int64]int64),
	}
}

func (c *TaskCommand) Description() string {
	return "View the details of a task."
}

func (c *TaskCommand) ExecuteAuthenticated(ctx context.Context, cc *Context) Result {
	if cc.IsCallback() {
		return c.handleCallback(ctx, cc)
	}

	c.mu.Lock()
	taskID, waiting := c.pendingHours[cc.ChatID()]
	c.mu.Unlock()
	if waiting {
		return c.handleHoursTaken(ctx, cc, taskID)
	}

	if !cc.HasArgs() {
		c.resp.reply(cc, "You must give a task ID to view a task!")
		return Finish()
	}

	taskID, err := strconv.ParseInt(cc.Args[1], 10, 64)
	if err != nil {
		c.resp.reply(cc, "Invalid parameter: you must supply a number.")
		return Finish()
	}

	task, err := c.tasks.TaskByID(ctx, taskID)
	if err != nil {
		c.resp.logger.Error().Err(err).Int64("task_id", taskID).Msg("task lookup failed")
		c.resp.reply(cc, "Couldn't look that task up right now. Please try again.")
		return Finish()
	}
	if task == nil {
		c.resp.reply(cc, "Task not found!")
		return Finish()
	}

	c.viewTask(cc, task)
	return Finish()
}

// keyboardForTask picks the actions that make sense for the task's state; a
// finished task, for instance, offers no "Done" button.
func (c *TaskCommand) keyboardForTask(task *model.Task) [][]Button {
	var stateRow []Button
	switch task.State {
	case model.StateTodo:
		stateRow = []Button{actionStart.button(), actionDone.button(), actionBlocked.button()}
	case model.StateInProgress:
		stateRow = []Button{actionDone.button(), actionBlocked.button()}
	case model.StateBlocked:
		stateRow = []Button{actionStart.button(), actionDone.button()}
	default:
		stateRow = []Button{actionUndo.button()}
	}

	generalRow := []Button{actionEdit.button(), actionDelete.button()}
	return [][]Button{stateRow, generalRow}
}

func (c *TaskCommand) taskText(task *model.Task) string {
	dueDate := "No due date"
	if !task.FinishesAt.IsZero() {
		dueDate = task.FinishesAt.Format("2006-01-02")
	}
	sprint := "No sprint"
	if task.SprintID > 0 {
		sprint = strconv.FormatInt(task.SprintID, 10)
	}

	return fmt.Sprintf("*%s*\nSprint: %s\nState: *%s*\nDue: %s",
		escapeMarkdownV2(task.Description),
		escapeMarkdownV2(sprint),
		escapeMarkdownV2(string(task.State)),
		escapeMarkdownV2(dueDate))
}

// viewTask sends the id marker message and the rendered task replying to
// it. Without the marker the buttons could never be correlated back, so a
// failed marker send aborts the view.
func (c *TaskCommand) viewTask(cc *Context, task *model.Task) {
	if task.AssignedTo != cc.AuthenticatedUser().ID {
		c.resp.reply(cc, "This task is not assigned to you. You cannot view it.")
		return
	}

	idMsgID := c.resp.send(Message{
		ChatID: cc.ChatID(),
		Text:   fmt.Sprintf("📂 id:%d", task.ID),
	})
	if idMsgID == 0 {
		c.resp.logger.Error().Int64("task_id", task.ID).Msg("id marker send failed, aborting view")
		return
	}

	c.resp.send(Message{
		ChatID:   cc.ChatID(),
		Text:     c.taskText(task),
		Markdown: true,
		ReplyTo:  idMsgID,
		Keyboard: c.keyboardForTask(task),
	})
}

func (c *TaskCommand) handleCallback(ctx context.Context, cc *Context) Result {
	cb := cc.Event.Callback

	// Telegram reports a zero date once the message is too old to access.
	if cb.MessageDate == 0 {
		c.resp.toast(cb.ID, "Sorry, the message is too old. Try viewing the task again.")
		return Finish()
	}

	action, ok := actionFromCallback(cb.Data)
	if !ok {
		c.resp.logger.Warn().Str("data", cb.Data).Msg("unknown task callback")
		return Finish()
	}

	if action.administrative {
		c.resp.toast(cb.ID, "Sorry, I can't do that yet.")
		return Finish()
	}

	match := idMessagePattern.FindStringSubmatch(cb.ReplyToText)
	if match == nil {
		// Reply chain broken or marker rewritten: a protocol violation, not
		// a user error. Drop it.
		c.resp.logger.Warn().Str("reply_text", cb.ReplyToText).Msg("task id marker not found")
		return Finish()
	}
	taskID, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		c.resp.logger.Warn().Str("id", match[1]).Msg("task id marker out of range")
		return Finish()
	}

	return c.changeTaskState(ctx, cc, taskID, action)
}

func (c *TaskCommand) changeTaskState(ctx context.Context, cc *Context, taskID int64, action taskAction) Result {
	cb := cc.Event.Callback

	if action == actionDone {
		// The state flip waits for the hours-taken answer.
		c.mu.Lock()
		c.pendingHours[cc.ChatID()] = taskID
		c.mu.Unlock()
		c.resp.reply(cc, "How many hours did it take?")
		return Continue()
	}

	task, err := c.tasks.TaskByID(ctx, taskID)
	if err != nil {
		c.resp.logger.Error().Err(err).Int64("task_id", taskID).Msg("task lookup failed")
		c.resp.toast(cb.ID, "Couldn't update the task right now. Please try again.")
		return Finish()
	}
	if task == nil {
		c.resp.toast(cb.ID, "Task no longer exists.")
		return Finish()
	}

	switch action {
	case actionStart, actionUndo:
		task.State = model.StateInProgress
	case actionBlocked:
		task.State = model.StateBlocked
	}

	if err := c.tasks.UpdateTask(ctx, taskID, task); err != nil {
		c.resp.logger.Error().Err(err).Int64("task_id", taskID).Msg("task update failed")
		c.resp.toast(cb.ID, "Couldn't update the task right now. Please try again.")
		return Finish()
	}

	c.resp.edit(cc.ChatID(), cb.MessageID, c.taskText(task), c.keyboardForTask(task))
	c.resp.toast(cb.ID, "Task updated!")
	return Finish()
}

// handleHoursTaken finishes a "Done" press: only a valid positive number
// commits the DONE state and the real hours in one write.
func (c *TaskCommand) handleHoursTaken(ctx context.Context, cc *Context, taskID int64) Result {
	hours, err := strconv.Atoi(strings.TrimSpace(cc.Event.Text))
	if err != nil {
		c.resp.reply(cc, "You must input a number!")
		return Continue()
	}
	if hours < 1 {
		c.resp.reply(cc, "You must input a number greater than 0.")
		return Continue()
	}

	task, err := c.tasks.TaskByID(ctx, taskID)
	if err != nil {
		c.resp.logger.Error().Err(err).Int64("task_id", taskID).Msg("task lookup failed")
		c.resp.reply(cc, "Couldn't update the task right now. Please try again.")
		return Continue()
	}
	if task == nil {
		c.mu.Lock()
		delete(c.pendingHours, cc.ChatID())
		c.mu.Unlock()
		c.resp.reply(cc, "Task not found!")
		return Finish()
	}

	task.HoursReal = hours
	task.State = model.StateDone
	if err := c.tasks.UpdateTask(ctx, taskID, task); err != nil {
		c.resp.logger.Error().Err(err).Int64("task_id", taskID).Msg("task update failed")
		c.resp.reply(cc, "Couldn't update the task right now. Please try again.")
		return Continue()
	}

	c.mu.Lock()
	delete(c.pendingHours, cc.ChatID())
	c.mu.Unlock()

	c.resp.reply(cc, "Done! Task updated.")
	return Finish()
}
