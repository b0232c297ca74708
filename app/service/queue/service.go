// Package queue buffers inbound payment failures and customer replies for
// the engine loop.
package queue

import (
	"log/slog"
	"sync"

	"careloop/app/config"

	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

type Kind string

const (
	KindPaymentFailed Kind = "payment_failed"
	KindReply         Kind = "reply"
)

type Event struct {
	Kind       Kind
	CustomerID string
	Text       string
}

type Service struct {
	mu     sync.RWMutex
	closed bool
	queue  chan Event
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Engine.QueueSize), nil
}

func NewService(size int) *Service {
	return &Service{
		queue: make(chan Event, size),
	}
}

// Add enqueues an event without blocking. It reports false when the queue
// is full or shut down.
func (s *Service) Add(event Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.queue <- event:
		return true
	default:
		slog.Warn("Event queue is full",
			slog.String("kind", string(event.Kind)),
			slog.String("customer_id", event.CustomerID),
		)
		return false
	}
}

func (s *Service) Channel() <-chan Event {
	return s.queue
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.queue)
	}

	return nil
}
