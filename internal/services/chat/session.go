package chat

import (
	"sync"

	"github.com/deepgram/parlor/internal/services/transcript"
)

// State is the turn state of a session.
type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting_response"
	default:
		return "unknown"
	}
}

// Session holds one visitor's conversation: the transcript, the pending input field
// and the turn state. It lives only in memory.
type Session struct {
	id         string
	transcript *transcript.Store

	mu        sync.Mutex
	input     string
	state     State
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession starts a session with an empty transcript and an empty input field.
func NewSession(id string) *Session {
	return &Session{
		id:         id,
		transcript: transcript.NewStore(),
		done:       make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Transcript() *transcript.Store {
	return s.transcript
}

// Input is the current value of the input field.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down. Done is closed so live listeners can detach.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
	})
}

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// begin moves the session to AwaitingResponse with input recorded in the input field.
func (s *Session) begin(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state == AwaitingResponse {
		return ErrTurnInProgress
	}
	s.input = input
	s.state = AwaitingResponse
	return nil
}

// finish clears the input field and returns the session to Idle.
func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = ""
	s.state = Idle
}
