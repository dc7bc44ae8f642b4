package bot

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwise/sprintbot/internal/metrics"
	"github.com/planwise/sprintbot/internal/model"
)

// scriptedCommand records every invocation and answers with the scripted
// result.
type scriptedCommand struct {
	mu     sync.Mutex
	script func(cc *Context) Result
	calls  [][]string
}

func (s *scriptedCommand) Description() string { return "scripted" }

func (s *scriptedCommand) Execute(ctx context.Context, cc *Context) Result {
	s.mu.Lock()
	s.calls = append(s.calls, cc.Args)
	s.mu.Unlock()
	if s.script != nil {
		return s.script(cc)
	}
	return Finish()
}

func (s *scriptedCommand) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type processorFixture struct {
	proc     *Processor
	registry *Registry
	sessions *MemorySessions
	sender   *fakeSender
	dir      *fakeDirectory
}

func newProcessorFixture() *processorFixture {
	sender := &fakeSender{}
	dir := &fakeDirectory{users: []model.User{{ID: 1, TelegramID: 42, Name: "ada", Role: "developer"}}}
	m := metrics.New()
	registry := NewRegistry()
	sessions := NewMemorySessions()
	auth := NewAuthenticator(dir, 16, m, zerolog.Nop())
	resp := NewResponder(sender, m, zerolog.Nop())
	proc := NewProcessor(registry, sessions, auth, resp, "sprintbot_test_bot", m, zerolog.Nop())
	return &processorFixture{proc: proc, registry: registry, sessions: sessions, sender: sender, dir: dir}
}

func TestProcessor_RoutesByFirstWord(t *testing.T) {
	f := newProcessorFixture()
	cmd := &scriptedCommand{}
	f.registry.Register("/hello", cmd)

	f.proc.Process(context.Background(), textEvent(10, 42, "/hello there friend"))

	require.Equal(t, 1, cmd.callCount())
	assert.Equal(t, []string{"/hello", "there", "friend"}, cmd.calls[0])
	assert.Equal(t, []int64{10}, f.sender.typing)
}

func TestProcessor_UnknownInputDropped(t *testing.T) {
	f := newProcessorFixture()
	cmd := &scriptedCommand{}
	f.registry.Register("/hello", cmd)

	f.proc.Process(context.Background(), textEvent(10, 42, "what is this"))

	assert.Equal(t, 0, cmd.callCount())
	assert.Empty(t, f.sender.sent)
	assert.Empty(t, f.sender.typing)
}

func TestProcessor_ContinueRoutesNextEventBack(t *testing.T) {
	f := newProcessorFixture()
	cmd := &scriptedCommand{script: func(cc *Context) Result {
		if cc.Args[0] == "/wizard" {
			return Continue()
		}
		return Finish()
	}}
	f.registry.Register("/wizard", cmd)

	f.proc.Process(context.Background(), textEvent(10, 42, "/wizard"))
	f.proc.Process(context.Background(), textEvent(10, 42, "free text answer"))

	require.Equal(t, 2, cmd.callCount())
	assert.Equal(t, []string{"free", "text", "answer"}, cmd.calls[1])

	// Finish returned the chat to stateless dispatch.
	_, pending := f.sessions.Pending(10)
	assert.False(t, pending)
}

func TestProcessor_ContinueDoesNotStealPendingSlot(t *testing.T) {
	f := newProcessorFixture()
	wizard := &scriptedCommand{script: func(cc *Context) Result { return Continue() }}
	interloper := &scriptedCommand{script: func(cc *Context) Result { return Continue() }}
	f.registry.Register("/wizard", wizard)
	f.registry.Register("/other", interloper)

	f.proc.Process(context.Background(), textEvent(10, 42, "/wizard"))
	f.proc.Process(context.Background(), textEvent(10, 42, "/other"))

	pending, ok := f.sessions.Pending(10)
	require.True(t, ok)
	assert.Equal(t, "/wizard", pending)

	// Plain text still goes to the wizard.
	f.proc.Process(context.Background(), textEvent(10, 42, "answer"))
	assert.Equal(t, 2, wizard.callCount())
	assert.Equal(t, 1, interloper.callCount())
}

func TestProcessor_PendingIsPerChat(t *testing.T) {
	f := newProcessorFixture()
	cmd := &scriptedCommand{script: func(cc *Context) Result { return Continue() }}
	f.registry.Register("/wizard", cmd)

	f.proc.Process(context.Background(), textEvent(10, 42, "/wizard"))
	f.proc.Process(context.Background(), textEvent(11, 42, "stray text"))

	// The other chat has no pending command, so its text is dropped.
	assert.Equal(t, 1, cmd.callCount())
}

func TestProcessor_ExecuteForwardsToAnotherCommand(t *testing.T) {
	f := newProcessorFixture()
	starter := &scriptedCommand{script: func(cc *Context) Result { return Execute("task", "5") }}
	task := &scriptedCommand{}
	f.registry.Register("/start", starter)
	f.registry.Register("task", task)

	f.proc.Process(context.Background(), textEvent(10, 42, "/start task_5"))

	require.Equal(t, 1, task.callCount())
	assert.Equal(t, []string{"task", "5"}, task.calls[0])

	_, pending := f.sessions.Pending(10)
	assert.False(t, pending)
}

func TestProcessor_ExecuteChainIsBounded(t *testing.T) {
	f := newProcessorFixture()
	loop := &scriptedCommand{script: func(cc *Context) Result { return Execute("/loop") }}
	f.registry.Register("/loop", loop)

	f.proc.Process(context.Background(), textEvent(10, 42, "/loop"))

	assert.Equal(t, maxExecuteDepth, loop.callCount())
}

func TestProcessor_NoTypingForCallbacks(t *testing.T) {
	f := newProcessorFixture()
	cmd := &scriptedCommand{}
	f.registry.Register("task", cmd)

	f.proc.Process(context.Background(), callbackEvent(10, 42, "task_start", "📂 id:5"))

	assert.Equal(t, 1, cmd.callCount())
	assert.Empty(t, f.sender.typing)
}

func TestProcessor_StalePendingCleared(t *testing.T) {
	f := newProcessorFixture()
	f.sessions.SetPending(10, "/gone")

	f.proc.Process(context.Background(), textEvent(10, 42, "anything"))

	_, pending := f.sessions.Pending(10)
	assert.False(t, pending)
}

func TestRegistry_Order(t *testing.T) {
	r := NewRegistry()
	r.Register("/b", &scriptedCommand{})
	r.Register("/a", &scriptedCommand{})
	r.Register("/b", &scriptedCommand{}) // re-register keeps position

	entries := r.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "/b", entries[0].Name)
	assert.Equal(t, "/a", entries[1].Name)
}

func TestMemorySessions(t *testing.T) {
	s := NewMemorySessions()

	_, ok := s.Pending(1)
	assert.False(t, ok)

	s.SetPending(1, "/wizard")
	name, ok := s.Pending(1)
	require.True(t, ok)
	assert.Equal(t, "/wizard", name)

	s.ClearPending(1)
	_, ok = s.Pending(1)
	assert.False(t, ok)
}
