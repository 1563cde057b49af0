package transcript

import (
	"sync"

	"github.com/deepgram/parlor/internal/domain/chat/models"
)

// ChangeFunc is notified after a message has been appended.
type ChangeFunc func(msg models.Message)

// Store is an append-only, in-memory conversation transcript.
type Store struct {
	mu          sync.RWMutex
	messages    []models.Message
	subscribers map[int]ChangeFunc
	nextID      int
}

func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]ChangeFunc),
	}
}

// Append adds msg to the end of the transcript and notifies subscribers.
// Subscribers run on the caller's goroutine after the lock is released.
func (s *Store) Append(msg models.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	subs := make([]ChangeFunc, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(msg)
	}
}

// All returns a copy of the transcript in insertion order.
func (s *Store) All() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Text is the plain-text display form of the transcript.
func (s *Store) Text() string {
	return models.JoinContent(s.All())
}

// Subscribe registers fn for change notifications. The returned function removes it.
func (s *Store) Subscribe(fn ChangeFunc) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribeLocked(fn)
}

// Snapshot returns the current messages and subscribes fn atomically, so no append is
// missed or delivered twice between the two.
func (s *Store) Snapshot(fn ChangeFunc) ([]models.Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out, s.subscribeLocked(fn)
}

func (s *Store) subscribeLocked(fn ChangeFunc) func() {
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}
