package bot

import "sync"

// SessionStore tracks which command a chat is currently continuing.
// At most one pending command exists per chat; last write wins.
type SessionStore interface {
	SetPending(chatID int64, command string)
	Pending(chatID int64) (string, bool)
	ClearPending(chatID int64)
}

// MemorySessions is the in-process SessionStore.
type MemorySessions struct {
	mu      sync.Mutex
	pending map[int64]string
}

// NewMemorySessions creates an empty session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{pending: make(map[int64]string)}
}

func (s *MemorySessions) SetPending(chatID int64, command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[chatID] = command
}

func (s *MemorySessions) Pending(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.pending[chatID]
	return name, ok
}

func (s *MemorySessions) ClearPending(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, chatID)
}
