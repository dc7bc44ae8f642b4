package bot

import (
	"context"
	"fmt"
	"strings"
)

// HelpCommand lists every user-facing (slash-prefixed) command with its
// description. It works without authentication.
type HelpCommand struct {
	resp Responder
}

// NewHelpCommand creates the /help handler.
func NewHelpCommand(resp Responder) *HelpCommand {
	return &HelpCommand{resp: resp}
}

func (c *HelpCommand) Description() string {
	return "Show all commands along with a description."
}

func (c *HelpCommand) Execute(ctx context.Context, cc *Context) Result {
	var lines []string
	for _, entry := range cc.Registry().All() {
		if !strings.HasPrefix(entry.Name, "/") {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s - %s", strings.TrimPrefix(entry.Name, "/"), entry.Command.Description()))
	}

	c.resp.reply(cc, strings.Join(lines, "\n"))
	return Finish()
}
