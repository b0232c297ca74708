package engine

import (
	"context"
	"log/slog"
	"time"

	"careloop/app/domain"
	"careloop/app/service/conversation"
	"careloop/app/service/intent"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// SubmitReply runs one classify, transition, generate and execute cycle for
// a customer reply. Replies to a finished session change nothing and return
// ErrSessionTerminated.
func (s *Service) SubmitReply(ctx context.Context, customerID, text string) (domain.Session, error) {
	e := s.entry(customerID, false)
	if e == nil {
		return domain.Session{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	session := e.session
	if session == nil {
		return domain.Session{}, ErrSessionNotFound
	}
	if session.Terminated() {
		return session.Clone(), ErrSessionTerminated
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Engine.CycleTimeout)
	defer cancel()

	start := time.Now()
	cycle := session.Cycles + 1
	from := len(session.ToolCalls)

	var lastSystemMessage string
	if msg, ok := session.LastMessage(domain.RoleAssistant); ok {
		lastSystemMessage = msg.Content
	}

	req := intent.Request{
		Message:           text,
		Context:           conversation.Context(session),
		LastSystemMessage: lastSystemMessage,
	}

	session.AppendMessage(domain.RoleUser, text)

	result := s.classifier.Classify(ctx, req)

	if err := conversation.Transition(session, result.Intent); err != nil {
		return session.Clone(), oops.In("engine").With("customer_id", customerID).Wrapf(err, "transition")
	}

	session.Record(domain.ToolCallRecord{
		ID:         uuid.NewString(),
		Agent:      domain.AgentClassifier,
		Cycle:      cycle,
		Stage:      session.Stage,
		Intent:     result.Intent,
		Confidence: result.Confidence,
		Decision:   string(result.Source),
		Reasoning:  result.Reasoning,
	})

	strategy := conversation.SelectStrategy(session.Stage, session.Intent)
	session.Strategy = strategy
	session.AppendMessage(domain.RoleAssistant, s.conversationSvc.Compose(ctx, strategy, session))
	session.Record(domain.ToolCallRecord{
		ID:       uuid.NewString(),
		Agent:    domain.AgentNegotiator,
		Cycle:    cycle,
		Stage:    session.Stage,
		Intent:   session.Intent,
		Strategy: strategy,
		Decision: "message_sent",
	})

	s.executor.Execute(ctx, session, cycle)

	session.Cycles = cycle
	s.persist(ctx, session, from)

	slog.Info("Processed reply",
		slog.String("customer_id", customerID),
		slog.String("intent", result.Intent.String()),
		slog.Float64("confidence", result.Confidence),
		slog.String("stage", session.Stage.String()),
		slog.String("strategy", strategy.String()),
		slog.Duration("duration", time.Since(start)),
	)

	return session.Clone(), nil
}
