package conversation

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("conversation not found")

// Manager is the keyed store of conversation state. It owns the invariant
// that at most one message per conversation id is in flight at a time:
// Acquire hands out the live state under a per-id lock, so concurrent
// messages for the same id queue up while distinct ids proceed in parallel.
type Manager struct {
	mu            sync.Mutex
	conversations map[string]*entry
	idleTTL       time.Duration
	expireHook    func(State)
}

type entry struct {
	mu    sync.Mutex
	state State
}

func NewManager(idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &Manager{
		conversations: make(map[string]*entry),
		idleTTL:       idleTTL,
	}
}

// Acquire returns the live state for id, creating a fresh cursor at StepName
// on miss, and reports whether it was created. The caller must invoke release
// when the turn is done; until then further Acquire calls for the same id block.
func (m *Manager) Acquire(id string) (state *State, created bool, release func()) {
	for {
		m.mu.Lock()
		e, ok := m.conversations[id]
		if !ok {
			now := time.Now().UTC()
			e = &entry{state: State{
				ID:             id,
				Step:           StepName,
				StartedAt:      now,
				LastActivityAt: now,
			}}
			m.conversations[id] = e
			created = true
		}
		m.mu.Unlock()

		e.mu.Lock()
		m.mu.Lock()
		if m.conversations[id] == e {
			m.mu.Unlock()
			e.state.LastActivityAt = time.Now().UTC()
			return &e.state, created, e.mu.Unlock
		}
		// Entry was reset or expired between lookup and lock; retry.
		m.mu.Unlock()
		e.mu.Unlock()
	}
}

// Snapshot returns a copy of the state for id.
func (m *Manager) Snapshot(id string) (State, error) {
	m.mu.Lock()
	e, ok := m.conversations[id]
	m.mu.Unlock()
	if !ok {
		return State{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, nil
}

// Reset drops the conversation so the next message starts a fresh intake.
func (m *Manager) Reset(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, id)
}

// SetExpireHook registers fn to run after the janitor evicts an idle
// conversation. The hook runs outside the manager lock.
func (m *Manager) SetExpireHook(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireHook = fn
}

func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversations)
}

// StartJanitor evicts idle conversations in the background until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireIdle()
			}
		}
	}()
}

func (m *Manager) expireIdle() {
	now := time.Now().UTC()
	var expired []State
	m.mu.Lock()
	for id, e := range m.conversations {
		// Skip conversations with a turn in flight.
		if !e.mu.TryLock() {
			continue
		}
		st := e.state
		e.mu.Unlock()
		if now.Sub(st.LastActivityAt) >= m.idleTTL {
			delete(m.conversations, id)
			expired = append(expired, st)
		}
	}
	hook := m.expireHook
	m.mu.Unlock()

	if hook == nil {
		return
	}
	for _, st := range expired {
		hook(st)
	}
}
