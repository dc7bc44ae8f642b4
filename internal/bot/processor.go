package bot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/planwise/sprintbot/internal/metrics"
)

// maxExecuteDepth bounds command chaining through Execute results. A chain
// deeper than this indicates a command loop; the event is abandoned.
const maxExecuteDepth = 8

// Processor is the dispatch state machine. Given a normalized event it
// resolves the target command (explicit name match, or the chat's pending
// command, or none), invokes it, and applies the returned Result to the
// session store.
type Processor struct {
	registry *Registry
	sessions SessionStore
	auth     *Authenticator
	resp     Responder
	botName  string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(
	registry *Registry,
	sessions SessionStore,
	auth *Authenticator,
	resp Responder,
	botName string,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		registry: registry,
		sessions: sessions,
		auth:     auth,
		resp:     resp,
		botName:  botName,
		metrics:  m,
		logger:   logger.With().Str("component", "processor").Logger(),
	}
}

// Process dispatches one inbound event. It never panics the caller's loop:
// malformed events are logged and dropped.
func (p *Processor) Process(ctx context.Context, ev Event) {
	logger := p.logger.With().Str("dispatch_id", uuid.NewString()).Logger()

	user := p.auth.Authenticate(ctx, ev.SenderID)

	// Execute results re-enter here with a synthetic event; the loop is the
	// trampoline that keeps chaining off the call stack.
	for depth := 0; ; depth++ {
		if depth >= maxExecuteDepth {
			logger.Error().Int64("chat_id", ev.ChatID).Msg("command chain too deep, abandoning event")
			return
		}

		args := ev.Args()
		if len(args) == 0 {
			logger.Warn().Int64("chat_id", ev.ChatID).Msg("event with no arguments dropped")
			return
		}

		name := args[0]
		cmd, ok := p.registry.Find(name)
		if !ok {
			// Not a command name: if this chat is mid-conversation, hand the
			// raw input to the continuing command.
			pending, has := p.sessions.Pending(ev.ChatID)
			if !has {
				logger.Debug().Str("input", name).Int64("chat_id", ev.ChatID).Msg("no matching command, dropping")
				return
			}
			cmd, ok = p.registry.Find(pending)
			if !ok {
				logger.Error().Str("pending", pending).Msg("pending command not in registry")
				p.sessions.ClearPending(ev.ChatID)
				return
			}
			name = pending
		}

		logger.Info().Str("command", name).Int64("chat_id", ev.ChatID).Bool("callback", ev.IsCallback()).Msg("running command")

		if !ev.IsCallback() {
			p.resp.typing(ev.ChatID)
		}

		cc := &Context{
			Event:    ev,
			Args:     args,
			User:     user,
			registry: p.registry,
			botName:  p.botName,
		}

		start := time.Now()
		result := cmd.Execute(ctx, cc)
		p.metrics.ObserveDispatch(name, time.Since(start).Seconds())

		switch result.kind {
		case resultContinue:
			// Only claim the continuation slot when free: a command invoked
			// mid-conversation must not steal another command's chat.
			if _, has := p.sessions.Pending(ev.ChatID); !has {
				p.sessions.SetPending(ev.ChatID, name)
			}
			p.metrics.RecordDispatch(name, "continue")
			return

		case resultFinish:
			p.sessions.ClearPending(ev.ChatID)
			p.metrics.RecordDispatch(name, "finish")
			return

		case resultExecute:
			p.sessions.ClearPending(ev.ChatID)
			p.metrics.RecordDispatch(name, "execute")
			logger.Info().Strs("forwarded", result.forwarded).Msg("command forwarding")
			ev = Event{
				ChatID:         ev.ChatID,
				SenderID:       ev.SenderID,
				SenderUsername: ev.SenderUsername,
				Text:           strings.Join(result.forwarded, " "),
			}
		}
	}
}
