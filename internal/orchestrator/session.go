package orchestrator

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mrdja026/pcagent/internal/action"
	"github.com/mrdja026/pcagent/internal/history"
)

// Session is one goal's worth of state: its id, the goal text, the
// append-only history, and the single pending action awaiting approval.
// Exactly one action may be pending at a time, mirroring the original's
// single Mutex<Option<ActionCommand>>.
type Session struct {
	ID      string
	mu      sync.Mutex
	goal    string
	pending *action.Command
	History *history.History
}

// NewSession mints a session id via google/uuid, grounded on its use as
// an indirect dependency in both Jint8888-Pocket-Omega and cmux's own
// devsh submodule.
func NewSession() *Session {
	return &Session{
		ID:      uuid.New().String(),
		History: history.New(),
	}
}

func (s *Session) SetGoal(goal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goal = goal
	s.History.Clear()
}

func (s *Session) Goal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goal
}

func (s *Session) SetPending(cmd action.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cmd
	s.pending = &c
}

func (s *Session) TakePending() (action.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return action.Command{}, false
	}
	cmd := *s.pending
	s.pending = nil
	return cmd, true
}

func (s *Session) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}
