package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Plan string

const (
	PlanPremium   Plan = "premium"
	PlanBridge    Plan = "bridge"
	PlanCancelled Plan = "cancelled"
)

type Agent string

const (
	AgentRouter       Agent = "router"
	AgentClassifier   Agent = "classifier"
	AgentNegotiator   Agent = "negotiator"
	AgentToolExecutor Agent = "tool_executor"
)

// ToolResult is the raw outcome of one side-effecting call.
type ToolResult struct {
	Tool   string `json:"tool"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ToolCallRecord is one immutable audit entry.
type ToolCallRecord struct {
	ID         string       `json:"id"`
	Agent      Agent        `json:"agent"`
	Cycle      int          `json:"cycle"`
	Stage      Stage        `json:"stage"`
	Intent     Intent       `json:"intent,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
	Strategy   Strategy     `json:"strategy,omitempty"`
	Decision   string       `json:"decision,omitempty"`
	Reasoning  string       `json:"reasoning,omitempty"`
	Tools      []ToolResult `json:"tools,omitempty"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// Session is the state of one retention conversation. Once the stage is
// terminal every mutating method is a no-op.
type Session struct {
	ID             string            `json:"id"`
	CustomerID     string            `json:"customer_id"`
	Customer       CustomerContext   `json:"customer"`
	Profile        RiskProfile       `json:"profile"`
	Retention      RetentionDecision `json:"retention"`
	Offer          OfferSelection    `json:"offer"`
	Stage          Stage             `json:"stage"`
	Intent         Intent            `json:"intent,omitempty"`
	Strategy       Strategy          `json:"strategy,omitempty"`
	Plan           Plan              `json:"plan"`
	ChurnPrevented bool              `json:"churn_prevented"`
	RevenueImpact  float64           `json:"revenue_impact"`
	Cycles         int               `json:"cycles"`
	Messages       []Message         `json:"messages"`
	ToolCalls      []ToolCallRecord  `json:"tool_calls"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (s *Session) Terminated() bool {
	return s.Stage.Terminal()
}

func (s *Session) AppendMessage(role Role, content string) bool {
	if s.Terminated() {
		return false
	}

	now := time.Now()
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: now})
	s.UpdatedAt = now

	return true
}

// Record appends an audit entry. Entries are never rewritten.
func (s *Session) Record(rec ToolCallRecord) bool {
	if s.Terminated() {
		return false
	}

	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	rec.Tools = slices.Clone(rec.Tools)

	s.ToolCalls = append(s.ToolCalls, rec)
	s.UpdatedAt = rec.RecordedAt

	return true
}

// Advance moves to a non-terminal stage.
func (s *Session) Advance(next Stage) bool {
	if s.Terminated() || next.Terminal() || !next.Valid() {
		return false
	}

	s.Stage = next
	s.UpdatedAt = time.Now()

	return true
}

// Finalize moves the session to a terminal stage. Only the tool executor
// calls it.
func (s *Session) Finalize(terminal Stage) bool {
	if s.Terminated() || !terminal.Terminal() {
		return false
	}

	s.Stage = terminal
	s.UpdatedAt = time.Now()

	return true
}

func (s *Session) LastMessage(role Role) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i], true
		}
	}

	return Message{}, false
}

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() Session {
	c := *s
	c.Messages = slices.Clone(s.Messages)
	c.ToolCalls = make([]ToolCallRecord, len(s.ToolCalls))
	for i, rec := range s.ToolCalls {
		rec.Tools = slices.Clone(rec.Tools)
		c.ToolCalls[i] = rec
	}

	return c
}
