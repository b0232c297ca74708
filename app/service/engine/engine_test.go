package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"careloop/app/client/billing"
	"careloop/app/client/notifier"
	"careloop/app/config"
	"careloop/app/domain"
	"careloop/app/service/audit"
	"careloop/app/service/conversation"
	"careloop/app/service/intent"
	"careloop/app/service/queue"
	"careloop/app/service/signals"
	"careloop/app/service/store"
	"careloop/app/service/tools"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       *Service
	publisher *audit.MemoryPublisher
	store     store.Store
	path      string
}

type options struct {
	retrySucceeds bool
	generator     conversation.Generator
	path          string
}

func newFixture(t *testing.T, opts options) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Engine.QueueSize = 8

	if opts.path == "" {
		opts.path = filepath.Join(t.TempDir(), "sessions.jsonl")
	}

	st, err := store.NewFileStore(opts.path)
	require.NoError(t, err)

	publisher := &audit.MemoryPublisher{}

	di := do.New()
	do.ProvideValue(di, cfg)
	do.ProvideValue[signals.Provider](di, signals.NewCatalog())
	do.Provide(di, signals.New)
	do.ProvideValue(di, intent.NewClassifier(nil))
	do.ProvideValue(di, conversation.NewService(opts.generator, cfg.Billing.BridgePrice))
	do.ProvideValue(di, tools.NewExecutor(
		billing.NewClient(cfg.Billing, billing.FixedOutcome(opts.retrySucceeds)),
		notifier.LogNotifier{},
		cfg.Billing.BridgePrice,
	))
	do.ProvideValue[store.Store](di, st)
	do.ProvideValue[audit.Publisher](di, publisher)
	do.ProvideValue(di, queue.NewService(cfg.Engine.QueueSize))

	svc, err := New(di)
	require.NoError(t, err)

	return &fixture{
		svc:       svc,
		publisher: publisher,
		store:     st,
		path:      opts.path,
	}
}

type fixedGenerator struct {
	text string
}

func (g fixedGenerator) Generate(context.Context, conversation.GenerateRequest) (string, error) {
	return g.text, nil
}

func agents(records []domain.ToolCallRecord) []domain.Agent {
	out := make([]domain.Agent, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Agent)
	}

	return out
}

func TestStartSession(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)

	assert.Equal(t, domain.StageInitial, session.Stage)
	assert.Equal(t, domain.OfferBridgePlusFlexibility, session.Offer.Variant)
	assert.Equal(t, domain.TierPriorityOutreach, session.Retention.Tier)
	assert.Equal(t, domain.StrategyOutreach, session.Strategy)
	assert.Equal(t, domain.PlanPremium, session.Plan)
	assert.Empty(t, session.Intent)

	require.Len(t, session.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, session.Messages[0].Role)
	assert.Contains(t, session.Messages[0].Content, "Bella")

	assert.Equal(t, []domain.Agent{domain.AgentRouter, domain.AgentNegotiator}, agents(session.ToolCalls))
	assert.Equal(t, string(domain.OfferBridgePlusFlexibility), session.ToolCalls[0].Decision)
	assert.Len(t, f.publisher.Events(), 2)

	again, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)
	assert.Equal(t, session.ID, again.ID)
	assert.Len(t, again.ToolCalls, 2)
}

func TestStartSession_UnknownCustomer(t *testing.T) {
	f := newFixture(t, options{})

	session, err := f.svc.StartSession(context.Background(), "user_999")
	require.NoError(t, err)

	assert.False(t, session.Customer.Known)
	assert.InDelta(t, signals.NeutralMedicalUrgency, session.Profile.MedicalUrgencyScore, 1e-9)
	assert.InDelta(t, signals.NeutralPaymentRisk, session.Profile.PaymentRiskScore, 1e-9)
	assert.Equal(t, domain.OfferStandardRetryDeadline, session.Offer.Variant)
	assert.Equal(t, domain.StageInitial, session.Stage)
	require.Len(t, session.Messages, 1)
}

func TestStartSession_RequiresCustomerID(t *testing.T) {
	f := newFixture(t, options{})

	_, err := f.svc.StartSession(context.Background(), "")
	assert.Error(t, err)
}

func TestSubmitReply_AcceptBridge(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)

	session, err := f.svc.SubmitReply(ctx, "user_123", "yes to keeper plan")
	require.NoError(t, err)

	assert.Equal(t, domain.IntentAcceptBridge, session.Intent)
	assert.Equal(t, domain.StageCompleted, session.Stage)
	assert.Equal(t, domain.PlanBridge, session.Plan)
	assert.True(t, session.ChurnPrevented)
	assert.Positive(t, session.RevenueImpact)
	assert.Equal(t, domain.StrategyConfirmActivation, session.Strategy)
	assert.Equal(t, 1, session.Cycles)

	require.Len(t, session.ToolCalls, 5)
	assert.Equal(t, []domain.Agent{
		domain.AgentRouter,
		domain.AgentNegotiator,
		domain.AgentClassifier,
		domain.AgentNegotiator,
		domain.AgentToolExecutor,
	}, agents(session.ToolCalls))

	classified := session.ToolCalls[2]
	assert.Equal(t, domain.IntentAcceptBridge, classified.Intent)
	assert.Equal(t, domain.StageClosing, classified.Stage)
	assert.Equal(t, string(intent.SourceFallback), classified.Decision)

	executed := session.ToolCalls[4]
	assert.Equal(t, domain.StageCompleted, executed.Stage)
	assert.Equal(t, "bridge_plan_activated", executed.Decision)

	assert.Len(t, f.publisher.Events(), 5)

	saved, ok, err := f.store.Load(ctx, "user_123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StageCompleted, saved.Stage)
	assert.Len(t, saved.ToolCalls, 5)
}

func TestSubmitReply_AmbiguousYes(t *testing.T) {
	f := newFixture(t, options{
		generator: fixedGenerator{text: "Would you like the 14-day extension or Bridge Plan?"},
	})
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)

	session, err := f.svc.SubmitReply(ctx, "user_123", "yes")
	require.NoError(t, err)

	assert.Equal(t, domain.IntentAmbiguousAcceptance, session.Intent)
	assert.Equal(t, domain.StageNegotiating, session.Stage)
	assert.Equal(t, domain.StrategyRequestClarification, session.Strategy)
	assert.Equal(t, domain.PlanPremium, session.Plan)
	assert.False(t, session.ChurnPrevented)
	assert.Equal(t, "no_action", session.ToolCalls[len(session.ToolCalls)-1].Decision)

	session, err = f.svc.SubmitReply(ctx, "user_123", "yes, option b please")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentAcceptBridge, session.Intent)
	assert.Equal(t, domain.StageCompleted, session.Stage)
}

func TestSubmitReply_Cancel(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)

	session, err := f.svc.SubmitReply(ctx, "user_123", "cancel my plan")
	require.NoError(t, err)

	assert.Equal(t, domain.IntentCancelRequest, session.Intent)
	assert.Equal(t, domain.StageObjectionHandling, session.ToolCalls[2].Stage)
	assert.Equal(t, domain.StageCancelled, session.Stage)
	assert.Equal(t, domain.PlanCancelled, session.Plan)
	assert.False(t, session.ChurnPrevented)
	assert.InDelta(t, -12000, session.RevenueImpact, 1e-9)
}

func TestSubmitReply_TerminatedIsNoop(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)
	before, err := f.svc.SubmitReply(ctx, "user_123", "cancel my plan")
	require.NoError(t, err)

	after, err := f.svc.SubmitReply(ctx, "user_123", "yes to keeper plan")
	assert.ErrorIs(t, err, ErrSessionTerminated)
	assert.Equal(t, before.Stage, after.Stage)
	assert.Equal(t, before.Intent, after.Intent)
	assert.Equal(t, before.Plan, after.Plan)
	assert.Len(t, after.Messages, len(before.Messages))
	assert.Len(t, after.ToolCalls, len(before.ToolCalls))
	assert.Len(t, f.publisher.Events(), len(before.ToolCalls))
}

func TestSubmitReply_NotFound(t *testing.T) {
	f := newFixture(t, options{})

	_, err := f.svc.SubmitReply(context.Background(), "user_123", "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.Session("user_123")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.AuditLog("user_123")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitReply_AuditIsAppendOnly(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)

	replies := []struct {
		text   string
		intent domain.Intent
	}{
		{"hmm", domain.IntentFinancialHardship},
		{"what does it include", domain.IntentAskForMoreInfo},
		{"can I pay on friday", domain.IntentAskForTime},
	}

	previous := session.ToolCalls
	for i, reply := range replies {
		session, err = f.svc.SubmitReply(ctx, "user_123", reply.text)
		require.NoError(t, err)
		assert.Equal(t, reply.intent, session.Intent)
		assert.Equal(t, domain.StageNegotiating, session.Stage)
		assert.Equal(t, i+1, session.Cycles)

		require.GreaterOrEqual(t, len(session.ToolCalls), len(previous)+1)
		assert.Equal(t, previous, session.ToolCalls[:len(previous)])
		previous = session.ToolCalls
	}

	log, err := f.svc.AuditLog("user_123")
	require.NoError(t, err)
	assert.Len(t, log, 2+3*len(replies))
	assert.Len(t, f.publisher.Events(), len(log))
}

func TestSubmitReply_PaymentRetry(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		f := newFixture(t, options{retrySucceeds: false})
		ctx := context.Background()

		_, err := f.svc.StartSession(ctx, "user_456")
		require.NoError(t, err)

		session, err := f.svc.SubmitReply(ctx, "user_456", "I have a new card")
		require.NoError(t, err)
		assert.Equal(t, domain.IntentUpdatePayment, session.Intent)
		assert.Equal(t, domain.StageNegotiating, session.Stage)
		assert.False(t, session.ChurnPrevented)
		assert.Equal(t, "payment_retry_failed", session.ToolCalls[len(session.ToolCalls)-1].Decision)
	})

	t.Run("recovered", func(t *testing.T) {
		f := newFixture(t, options{retrySucceeds: true})
		ctx := context.Background()

		_, err := f.svc.StartSession(ctx, "user_456")
		require.NoError(t, err)

		session, err := f.svc.SubmitReply(ctx, "user_456", "I have a new card")
		require.NoError(t, err)
		assert.Equal(t, domain.StageCompleted, session.Stage)
		assert.True(t, session.ChurnPrevented)
		assert.InDelta(t, 50, session.RevenueImpact, 1e-9)
	})
}

func TestStartSession_ReplacesFinishedSession(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	first, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)
	_, err = f.svc.SubmitReply(ctx, "user_123", "cancel my plan")
	require.NoError(t, err)

	second, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, domain.StageInitial, second.Stage)
	assert.Len(t, second.ToolCalls, 2)
}

func TestSessions_AreIndependent(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"user_123", "user_456", "user_789"} {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.svc.StartSession(ctx, id)
			assert.NoError(t, err)
			_, err = f.svc.SubmitReply(ctx, id, "what does it include")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sessions := f.svc.Sessions()
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.Len(t, s.ToolCalls, 5, s.CustomerID)
		assert.Equal(t, domain.IntentAskForMoreInfo, s.Intent)
	}
}

func TestSession_ReturnsCopy(t *testing.T) {
	f := newFixture(t, options{})

	session, err := f.svc.StartSession(context.Background(), "user_123")
	require.NoError(t, err)

	session.ToolCalls[0].Decision = "tampered"
	session.Messages[0].Content = "tampered"

	fresh, err := f.svc.Session("user_123")
	require.NoError(t, err)
	assert.Equal(t, string(domain.OfferBridgePlusFlexibility), fresh.ToolCalls[0].Decision)
	assert.NotEqual(t, "tampered", fresh.Messages[0].Content)
}

func TestStats(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)
	_, err = f.svc.SubmitReply(ctx, "user_123", "yes to keeper plan")
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, "user_789")
	require.NoError(t, err)
	_, err = f.svc.SubmitReply(ctx, "user_789", "cancel my plan")
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, "user_456")
	require.NoError(t, err)

	stats := f.svc.Stats()
	assert.Equal(t, 3, stats.SessionsProcessed)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 1, stats.ChurnPrevented)
	assert.InDelta(t, 50, stats.RetentionRate, 1e-9)
	assert.InDelta(t, 1110-1500, stats.RevenueImpact, 1e-9)
}

func TestOutreachPlan(t *testing.T) {
	f := newFixture(t, options{})

	plan, err := f.svc.OutreachPlan(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, plan.TotalFailures)
	require.Len(t, plan.AIOutreach, 1)
	assert.Equal(t, "user_123", plan.AIOutreach[0].CustomerID)
	assert.Equal(t, plan.PriorityCount+plan.SecondaryCount+plan.IgnoreCount, plan.TotalFailures)
	assert.NotEmpty(t, plan.Recommendation)
}

func TestNew_RestoresSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.jsonl")
	ctx := context.Background()

	first := newFixture(t, options{path: path})
	started, err := first.svc.StartSession(ctx, "user_123")
	require.NoError(t, err)

	second := newFixture(t, options{path: path})
	restored, err := second.svc.Session("user_123")
	require.NoError(t, err)
	assert.Equal(t, started.ID, restored.ID)

	session, err := second.svc.SubmitReply(ctx, "user_123", "yes to keeper plan")
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, session.Stage)
}

func TestRun(t *testing.T) {
	f := newFixture(t, options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.svc.Run(ctx)
		close(done)
	}()

	require.True(t, f.svc.Enqueue(queue.Event{Kind: queue.KindPaymentFailed, CustomerID: "user_123"}))
	require.True(t, f.svc.Enqueue(queue.Event{Kind: queue.KindReply, CustomerID: "user_123", Text: "yes to keeper plan"}))
	require.True(t, f.svc.Enqueue(queue.Event{Kind: queue.KindReply, CustomerID: "user_123", Text: "cancel"}))

	assert.Eventually(t, func() bool {
		session, err := f.svc.Session("user_123")
		return err == nil && session.Stage == domain.StageCompleted
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	session, err := f.svc.Session("user_123")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanBridge, session.Plan)
}
