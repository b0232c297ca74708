package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"careloop/app/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(customerID string, stage domain.Stage) domain.Session {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	return domain.Session{
		ID:         "session-" + customerID,
		CustomerID: customerID,
		Customer:   domain.CustomerContext{CustomerID: customerID, PetName: "Bella", PlanCost: 50},
		Stage:      stage,
		Intent:     domain.IntentAcceptBridge,
		Plan:       domain.PlanPremium,
		Messages: []domain.Message{
			{Role: domain.RoleAssistant, Content: "hello", Timestamp: now},
		},
		ToolCalls: []domain.ToolCallRecord{
			{ID: "rec-1", Agent: domain.AgentRouter, Stage: domain.StageInitial, RecordedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "data", "sessions.jsonl"))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(context.Background(), filepath.Join(dir, "sessions.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = fileStore.Shutdown()
		_ = sqliteStore.Shutdown()
	})

	return map[string]Store{
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStore_SaveLoad(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := st.Load(ctx, "user_123")
			require.NoError(t, err)
			assert.False(t, ok)

			saved := testSession("user_123", domain.StageNegotiating)
			require.NoError(t, st.Save(ctx, saved))

			loaded, ok, err := st.Load(ctx, "user_123")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, saved.ID, loaded.ID)
			assert.Equal(t, domain.StageNegotiating, loaded.Stage)
			assert.Equal(t, "Bella", loaded.Customer.PetName)
			require.Len(t, loaded.Messages, 1)
			require.Len(t, loaded.ToolCalls, 1)
			assert.True(t, saved.UpdatedAt.Equal(loaded.UpdatedAt))
		})
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, st.Save(ctx, testSession("user_123", domain.StageNegotiating)))
			require.NoError(t, st.Save(ctx, testSession("user_456", domain.StageInitial)))
			require.NoError(t, st.Save(ctx, testSession("user_123", domain.StageCompleted)))

			loaded, ok, err := st.Load(ctx, "user_123")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, domain.StageCompleted, loaded.Stage)

			all, err := st.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestFileStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.jsonl")

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(context.Background(), testSession("user_789", domain.StageCancelled)))

	second, err := NewFileStore(path)
	require.NoError(t, err)

	loaded, ok, err := second.Load(context.Background(), "user_789")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StageCancelled, loaded.Stage)
}

func TestFileStore_FailedSaveLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.jsonl")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), testSession("user_123", domain.StageNegotiating)))

	broken := testSession("user_456", domain.StageNegotiating)
	broken.RevenueImpact = math.NaN()
	require.Error(t, s.Save(context.Background(), broken))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, ok, err := s.Load(context.Background(), "user_123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StageNegotiating, loaded.Stage)

	_, ok, err = s.Load(context.Background(), "user_456")
	require.NoError(t, err)
	assert.False(t, ok)
}
