package xcomfort

import (
	"sync"

	"github.com/asynkron/protoactor-go/eventstream"
)

// StateSubject keeps the latest pushed state of a room or device and fans
// every push out to its subscribers. New subscribers receive the current
// value immediately.
type StateSubject[T any] struct {
	mu      sync.RWMutex
	current Optional[T]
	stream  *eventstream.EventStream
}

func NewStateSubject[T any](initial Optional[T]) *StateSubject[T] {
	return &StateSubject[T]{
		current: initial,
		stream:  eventstream.NewEventStream(),
	}
}

func (s *StateSubject[T]) Value() Optional[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Push replaces the current value and notifies subscribers.
func (s *StateSubject[T]) Push(value Optional[T]) {
	s.mu.Lock()
	s.current = value
	s.mu.Unlock()
	s.stream.Publish(value)
}

// Subscribe registers fn and returns a function that removes it.
func (s *StateSubject[T]) Subscribe(fn func(Optional[T])) func() {
	sub := s.stream.Subscribe(func(evt any) {
		if value, ok := evt.(Optional[T]); ok {
			fn(value)
		}
	})
	fn(s.Value())
	var once sync.Once
	return func() {
		once.Do(func() {
			s.stream.Unsubscribe(sub)
		})
	}
}

func (s *StateSubject[T]) Subscribers() int {
	return int(s.stream.Length())
}
