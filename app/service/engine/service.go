// Package engine runs retention sessions: it scores and routes a customer
// after a failed payment, then drives each reply through classification,
// stage transition, message generation and tool execution.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"careloop/app/config"
	"careloop/app/domain"
	"careloop/app/service/audit"
	"careloop/app/service/conversation"
	"careloop/app/service/intent"
	"careloop/app/service/queue"
	"careloop/app/service/router"
	"careloop/app/service/scoring"
	"careloop/app/service/signals"
	"careloop/app/service/store"
	"careloop/app/service/tools"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionTerminated = errors.New("session is terminated")
)

type Service struct {
	cfg             *config.Config
	aggregator      *signals.Aggregator
	classifier      *intent.Classifier
	conversationSvc *conversation.Service
	executor        *tools.Executor
	store           store.Store
	publisher       audit.Publisher
	queueSvc        *queue.Service

	mu       sync.Mutex
	sessions map[string]*entry
}

// entry serializes cycles of one customer's session.
type entry struct {
	mu      sync.Mutex
	session *domain.Session
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:             do.MustInvoke[*config.Config](di),
		aggregator:      do.MustInvoke[*signals.Aggregator](di),
		classifier:      do.MustInvoke[*intent.Classifier](di),
		conversationSvc: do.MustInvoke[*conversation.Service](di),
		executor:        do.MustInvoke[*tools.Executor](di),
		store:           do.MustInvoke[store.Store](di),
		publisher:       do.MustInvoke[audit.Publisher](di),
		queueSvc:        do.MustInvoke[*queue.Service](di),
		sessions:        make(map[string]*entry),
	}

	if err := s.restore(context.Background()); err != nil {
		slog.Warn("Failed to restore sessions", slog.Any("error", err))
	}

	return s, nil
}

func (s *Service) restore(ctx context.Context) error {
	saved, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range saved {
		session := session.Clone()
		s.sessions[session.CustomerID] = &entry{session: &session}
	}

	if len(saved) > 0 {
		slog.Info("Restored sessions", slog.Int("count", len(saved)))
	}

	return nil
}

func (s *Service) entry(customerID string, create bool) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[customerID]
	if !ok && create {
		e = &entry{}
		s.sessions[customerID] = e
	}

	return e
}

// StartSession opens a retention session after a failed payment. A session
// that is still active is returned unchanged; a finished one is replaced.
func (s *Service) StartSession(ctx context.Context, customerID string) (domain.Session, error) {
	if customerID == "" {
		return domain.Session{}, oops.In("engine").Errorf("customer id is required")
	}

	e := s.entry(customerID, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil && !e.session.Terminated() {
		return e.session.Clone(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Engine.CycleTimeout)
	defer cancel()

	snapshot, err := s.aggregator.Aggregate(ctx, customerID)
	if err != nil {
		return domain.Session{}, oops.In("engine").With("customer_id", customerID).Wrapf(err, "aggregate signals")
	}

	decision := scoring.Score(snapshot.Profile)
	offer := router.Select(snapshot.Profile, snapshot.Customer)

	now := time.Now()
	session := &domain.Session{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Customer:   snapshot.Customer,
		Profile:    snapshot.Profile,
		Retention:  decision,
		Offer:      offer,
		Stage:      domain.StageInitial,
		Plan:       domain.PlanPremium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	session.Record(domain.ToolCallRecord{
		ID:       uuid.NewString(),
		Agent:    domain.AgentRouter,
		Stage:    session.Stage,
		Decision: string(offer.Variant),
		Reasoning: fmt.Sprintf("Rule %d: %s Retention score %.1f (%s): %s",
			offer.Rule, offer.Rationale, decision.PriorityScore, decision.Tier,
			scoring.Recommendation(decision, snapshot.Medical.Tier)),
	})

	strategy := conversation.SelectStrategy(session.Stage, session.Intent)
	session.Strategy = strategy
	session.AppendMessage(domain.RoleAssistant, s.conversationSvc.Compose(ctx, strategy, session))
	session.Record(domain.ToolCallRecord{
		ID:        uuid.NewString(),
		Agent:     domain.AgentNegotiator,
		Stage:     session.Stage,
		Strategy:  strategy,
		Decision:  "message_sent",
		Reasoning: "Initial outreach after payment failure",
	})

	e.session = session
	s.persist(ctx, session, 0)

	slog.Info("Session started",
		slog.String("customer_id", customerID),
		slog.String("session_id", session.ID),
		slog.String("offer", string(offer.Variant)),
		slog.Float64("priority_score", decision.PriorityScore),
		slog.String("tier", string(decision.Tier)),
	)

	return session.Clone(), nil
}

// Session returns a copy of the customer's current session.
func (s *Service) Session(customerID string) (domain.Session, error) {
	e := s.entry(customerID, false)
	if e == nil {
		return domain.Session{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return domain.Session{}, ErrSessionNotFound
	}

	return e.session.Clone(), nil
}

// Sessions returns copies of every known session.
func (s *Service) Sessions() []domain.Session {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	sessions := make([]domain.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.session != nil {
			sessions = append(sessions, e.session.Clone())
		}
		e.mu.Unlock()
	}

	return sessions
}

func (s *Service) AuditLog(customerID string) ([]domain.ToolCallRecord, error) {
	session, err := s.Session(customerID)
	if err != nil {
		return nil, err
	}

	return session.ToolCalls, nil
}

// persist writes the session through to the store and publishes the audit
// records appended since from. Failures are logged only.
func (s *Service) persist(ctx context.Context, session *domain.Session, from int) {
	if err := s.store.Save(ctx, session.Clone()); err != nil {
		slog.Error("Failed to save session",
			slog.String("customer_id", session.CustomerID),
			slog.Any("error", err),
		)
	}

	if from >= len(session.ToolCalls) {
		return
	}

	events := make([]audit.Event, 0, len(session.ToolCalls)-from)
	for _, rec := range session.ToolCalls[from:] {
		events = append(events, audit.Event{
			SessionID:  session.ID,
			CustomerID: session.CustomerID,
			Record:     rec,
		})
	}

	if err := s.publisher.Publish(ctx, events...); err != nil {
		slog.Error("Failed to publish audit records",
			slog.String("customer_id", session.CustomerID),
			slog.Any("error", err),
		)
	}
}
