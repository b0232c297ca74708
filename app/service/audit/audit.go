// Package audit ships audit records to an external log. The session keeps
// its own copy; publishing is best effort.
package audit

import (
	"context"
	"log/slog"
	"sync"

	"careloop/app/config"
	"careloop/app/domain"

	"github.com/samber/do"
)

// Event is one audit record with the session it belongs to.
type Event struct {
	SessionID  string                `json:"session_id"`
	CustomerID string                `json:"customer_id"`
	Record     domain.ToolCallRecord `json:"record"`
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Shutdown() error
}

func New(di *do.Injector) (Publisher, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if !cfg.Kafka.Enabled {
		slog.Info("Kafka disabled, audit records stay in the session store")
		return NopPublisher{}, nil
	}

	return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic), nil
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error {
	return nil
}

func (NopPublisher) Shutdown() error {
	return nil
}

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *MemoryPublisher) Publish(_ context.Context, events ...Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, events...)

	return nil
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Event(nil), p.events...)
}

func (p *MemoryPublisher) Shutdown() error {
	return nil
}
