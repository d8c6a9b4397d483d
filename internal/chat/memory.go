package chat

import (
	"sync"
	"time"
)

// Turn is one message in a session transcript.
type Turn struct {
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// session holds the mutable state of one conversation.
type session struct {
	turns       []Turn
	slots       Slots
	expectation string
	lastActive  time.Time
}

// SessionMemory stores multi-turn conversation state keyed by session ID.
// Handlers run concurrently, so all access is mutex-guarded.
type SessionMemory struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionMemory creates an empty memory.
func NewSessionMemory() *SessionMemory {
	return &SessionMemory{sessions: make(map[string]*session)}
}

func (m *SessionMemory) ensure(id string) *session {
	s, ok := m.sessions[id]
	if !ok {
		s = &session{}
		m.sessions[id] = s
	}

	s.lastActive = time.Now()

	return s
}

// AppendUser records a user turn.
func (m *SessionMemory) AppendUser(id, text string) {
	m.append(id, "user", text)
}

// AppendBot records a bot turn.
func (m *SessionMemory) AppendBot(id, text string) {
	m.append(id, "bot", text)
}

func (m *SessionMemory) append(id, from, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.ensure(id)
	s.turns = append(s.turns, Turn{From: from, Text: text, At: time.Now()})
}

// Turns returns a copy of the session transcript.
func (m *SessionMemory) Turns(id string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.ensure(id)

	return append([]Turn(nil), s.turns...)
}

// UpdateSlots merges non-empty slot values into the session and returns the
// merged result.
func (m *SessionMemory) UpdateSlots(id string, slots Slots) Slots {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.ensure(id)

	if slots.Day != "" {
		s.slots.Day = slots.Day
	}

	if slots.Time != "" {
		s.slots.Time = slots.Time
	}

	return s.slots
}

// Slots returns the session's current booking slots.
func (m *SessionMemory) Slots(id string) Slots {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ensure(id).slots
}

// SetExpectation marks what kind of follow-up message the session expects.
func (m *SessionMemory) SetExpectation(id, expectation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensure(id).expectation = expectation
}

// ExpectationIs reports whether the session expects the given follow-up.
func (m *SessionMemory) ExpectationIs(id, expectation string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ensure(id).expectation == expectation && expectation != ""
}

// ClearSession resets slots and expectation, keeping the transcript.
func (m *SessionMemory) ClearSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.ensure(id)
	s.slots = Slots{}
	s.expectation = ""
}
