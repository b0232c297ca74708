package audit

import (
	"context"
	"testing"

	"careloop/app/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisher(t *testing.T) {
	p := &MemoryPublisher{}

	require.NoError(t, p.Publish(context.Background(),
		Event{SessionID: "s-1", CustomerID: "user_123", Record: domain.ToolCallRecord{ID: "a"}},
		Event{SessionID: "s-1", CustomerID: "user_123", Record: domain.ToolCallRecord{ID: "b"}},
	))

	events := p.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Record.ID)

	events[0].Record.ID = "changed"
	assert.Equal(t, "a", p.Events()[0].Record.ID)
}

func TestKafkaPublisher_EmptyBatch(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "careloop-audit")
	t.Cleanup(func() { _ = p.Shutdown() })

	assert.NoError(t, p.Publish(context.Background()))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}

	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Shutdown())
}
