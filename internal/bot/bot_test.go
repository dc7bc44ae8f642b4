package bot

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/planwise/sprintbot/internal/metrics"
	"github.com/planwise/sprintbot/internal/model"
)

// fakeSender records every outbound call so tests can assert on exactly
// what the user would have seen.
type fakeSender struct {
	mu       sync.Mutex
	sent     []Message
	toasts   []string
	edits    []editCall
	typing   []int64
	failSend bool
	nextID   int
}

type editCall struct {
	chatID    int64
	messageID int
	text      string
	keyboard  [][]Button
}

func (f *fakeSender) Send(m Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	if f.failSend {
		return 0, errors.New("wire down")
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeSender) Edit(chatID int64, messageID int, text string, keyboard [][]Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editCall{chatID: chatID, messageID: messageID, text: text, keyboard: keyboard})
	return nil
}

func (f *fakeSender) AnswerCallback(callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, text)
	return nil
}

func (f *fakeSender) SendTyping(chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, chatID)
	return nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeSender) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

// fakeTaskStore is an in-memory TaskStore. Unknown ids read as (nil, nil).
type fakeTaskStore struct {
	mu        sync.Mutex
	nextID    int64
	tasks     map[int64]*model.Task
	createErr error
	readErr   error
	updateErr error
	updates   int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[int64]*model.Task)}
}

func (f *fakeTaskStore) put(t model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = &t
	if t.ID > f.nextID {
		f.nextID = t.ID
	}
}

func (f *fakeTaskStore) get(id int64) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.tasks[id]
}

func (f *fakeTaskStore) TaskByID(ctx context.Context, id int64) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) TasksByAssignee(ctx context.Context, userID int64) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []model.Task
	for id := int64(1); id <= f.nextID; id++ {
		if t, ok := f.tasks[id]; ok && t.AssignedTo == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) CreateTask(ctx context.Context, t *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	t.ID = f.nextID
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTaskStore) UpdateTask(ctx context.Context, id int64, t *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	cp := *t
	cp.ID = id
	f.tasks[id] = &cp
	return nil
}

// fakeDirectory counts lookups so tests can verify caching behavior.
type fakeDirectory struct {
	mu    sync.Mutex
	users []model.User
	err   error
	calls int
}

func (f *fakeDirectory) AllUsers(ctx context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeDirectory) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestResponder(sender *fakeSender) Responder {
	return NewResponder(sender, metrics.New(), zerolog.Nop())
}

func textEvent(chatID, senderID int64, text string) Event {
	return Event{ChatID: chatID, SenderID: senderID, Text: text}
}

func callbackEvent(chatID, senderID int64, data, replyToText string) Event {
	return Event{
		ChatID:   chatID,
		SenderID: senderID,
		Callback: &Callback{
			ID:          "cb-1",
			Data:        data,
			MessageID:   77,
			MessageDate: 1756700000,
			ReplyToText: replyToText,
		},
	}
}

// authedContext builds the context a command would receive behind the gate.
func authedContext(ev Event, user *model.User) *Context {
	return &Context{Event: ev, Args: ev.Args(), User: user, botName: "sprintbot_test_bot"}
}
