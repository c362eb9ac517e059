package domain

import (
	"sync"
	"time"
)

// State is the lifecycle state of one connection.
type State int

const (
	// StateConnected: identity resolved, no channel joined yet.
	StateConnected State = iota
	// StateJoined: a channel is assigned.
	StateJoined
	// StateClosed: terminal.
	StateClosed
)

// Session holds the per-connection state owned by the lifecycle manager.
// There is no cross-connection shared state here; channel membership beyond
// this struct lives only in the hub's subscription map.
type Session struct {
	ID string

	mu           sync.RWMutex
	participant  *Participant
	channelID    string
	state        State
	createdAt    time.Time
	lastActiveAt time.Time
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		state:        StateConnected,
		createdAt:    now,
		lastActiveAt: now,
	}
}

// SetParticipant records the resolved identity. Called once at connect.
func (s *Session) SetParticipant(p *Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participant = p
	s.lastActiveAt = time.Now()
}

func (s *Session) Participant() *Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participant
}

// Join records channel membership and moves the session to StateJoined.
func (s *Session) Join(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.channelID = channelID
	s.state = StateJoined
	s.lastActiveAt = time.Now()
}

// Leave clears channel membership and moves the session back to
// StateConnected.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.channelID = ""
	s.state = StateConnected
	s.lastActiveAt = time.Now()
}

// Close moves the session to its terminal state. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelID = ""
	s.state = StateClosed
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) ChannelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelID
}

func (s *Session) IsJoined() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateJoined
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}
