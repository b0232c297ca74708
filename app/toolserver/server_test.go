package toolserver

import (
	"context"
	"encoding/json"
	"testing"

	"careloop/app/domain"
	"careloop/app/service/engine"
	"careloop/app/service/scoring"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	sessions map[string]domain.Session
}

func (f *fakeEngine) StartSession(_ context.Context, customerID string) (domain.Session, error) {
	s := domain.Session{ID: "s-" + customerID, CustomerID: customerID, Stage: domain.StageInitial}
	f.sessions[customerID] = s
	return s, nil
}

func (f *fakeEngine) SubmitReply(_ context.Context, customerID, text string) (domain.Session, error) {
	s, ok := f.sessions[customerID]
	if !ok {
		return domain.Session{}, engine.ErrSessionNotFound
	}
	if s.Terminated() {
		return s, engine.ErrSessionTerminated
	}

	s.AppendMessage(domain.RoleUser, text)
	s.Stage = domain.StageCompleted
	f.sessions[customerID] = s

	return s, nil
}

func (f *fakeEngine) Session(customerID string) (domain.Session, error) {
	s, ok := f.sessions[customerID]
	if !ok {
		return domain.Session{}, engine.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeEngine) AuditLog(customerID string) ([]domain.ToolCallRecord, error) {
	s, err := f.Session(customerID)
	return s.ToolCalls, err
}

func (f *fakeEngine) Stats() engine.Stats {
	return engine.Stats{SessionsProcessed: len(f.sessions)}
}

func (f *fakeEngine) OutreachPlan(_ context.Context, capacity int) (scoring.OutreachPlan, error) {
	return scoring.OutreachPlan{TotalFailures: capacity}, nil
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	return content.Text
}

func TestServer_SessionFlow(t *testing.T) {
	s := NewServer(&fakeEngine{sessions: map[string]domain.Session{}})
	ctx := context.Background()

	result, err := s.startSession(ctx, request(map[string]any{"customer_id": "user_123"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var session domain.Session
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &session))
	assert.Equal(t, "user_123", session.CustomerID)

	result, err = s.submitReply(ctx, request(map[string]any{"customer_id": "user_123", "text": "yes, the bridge plan"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, text(t, result), `"stage":"completed"`)

	result, err = s.submitReply(ctx, request(map[string]any{"customer_id": "user_123", "text": "hello?"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "completed")

	result, err = s.getSession(ctx, request(map[string]any{"customer_id": "user_123"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = s.getAuditLog(ctx, request(map[string]any{"customer_id": "user_123"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestServer_Errors(t *testing.T) {
	s := NewServer(&fakeEngine{sessions: map[string]domain.Session{}})
	ctx := context.Background()

	result, err := s.startSession(ctx, request(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.submitReply(ctx, request(map[string]any{"customer_id": "user_123"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.getSession(ctx, request(map[string]any{"customer_id": "nobody"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), engine.ErrSessionNotFound.Error())
}

func TestServer_Reports(t *testing.T) {
	s := NewServer(&fakeEngine{sessions: map[string]domain.Session{}})
	ctx := context.Background()

	result, err := s.outreachPlan(ctx, request(map[string]any{"capacity": float64(3)}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), `"total_failures":3`)

	result, err = s.stats(ctx, request(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), `"sessions_processed":0`)
}
