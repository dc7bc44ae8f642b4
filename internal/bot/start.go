package bot

import (
	"context"
	"strings"
)

// StartCommand greets new chats and unpacks deep-link payloads: opening a
// t.me/<bot>?start=task_12 link makes the client send "/start task_12",
// which this command forwards as the command "task 12".
type StartCommand struct {
	resp Responder
}

// NewStartCommand creates the /start handler.
func NewStartCommand(resp Responder) *StartCommand {
	return &StartCommand{resp: resp}
}

func (c *StartCommand) Description() string {
	return "Start the bot"
}

func (c *StartCommand) ExecuteAuthenticated(ctx context.Context, cc *Context) Result {
	if cc.HasArgs() {
		return Execute(strings.Split(cc.Args[1], "_")...)
	}

	c.resp.reply(cc, "Welcome to the sprint bot! Send /help to see what I can do.")
	return Finish()
}
