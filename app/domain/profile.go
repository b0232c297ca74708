package domain

// RiskProfile is the normalized per-customer signal snapshot. It is computed
// once at session start and never changed afterwards.
type RiskProfile struct {
	MedicalUrgencyScore float64 `json:"medical_urgency_score" validate:"gte=0,lte=100"`
	PaymentRiskScore    float64 `json:"payment_risk_score" validate:"gte=0,lte=100"`
	AdherenceScore      float64 `json:"adherence_score" validate:"gte=0,lte=100"`
	LifetimeValue       float64 `json:"lifetime_value" validate:"gte=0"`
	TenureMonths        int     `json:"tenure_months" validate:"gte=0"`
}

type Tier string

const (
	TierPriorityOutreach  Tier = "PRIORITY_OUTREACH"
	TierSecondaryOutreach Tier = "SECONDARY_OUTREACH"
	TierIgnore            Tier = "IGNORE"
)

// ComponentBreakdown holds the sub-scores that add up to the priority score.
type ComponentBreakdown struct {
	Medical    float64 `json:"medical"`
	Value      float64 `json:"value"`
	Engagement float64 `json:"engagement"`
	Financial  float64 `json:"financial"`
}

func (b ComponentBreakdown) Total() float64 {
	return b.Medical + b.Value + b.Engagement + b.Financial
}

type RetentionDecision struct {
	PriorityScore float64            `json:"priority_score"`
	Tier          Tier               `json:"tier"`
	Breakdown     ComponentBreakdown `json:"breakdown"`
	Action        string             `json:"action"`
	Reasoning     string             `json:"reasoning"`
}

// ShouldEngageAI is true for customers that get the negotiated conversation
// instead of standard dunning.
func (d RetentionDecision) ShouldEngageAI() bool {
	return d.Tier == TierPriorityOutreach
}

// CustomerContext carries the descriptive facts used for prompts and
// messages. None of it feeds a decision.
type CustomerContext struct {
	CustomerID      string  `json:"customer_id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	PetName         string  `json:"pet_name"`
	PetCondition    string  `json:"pet_condition"`
	PlanCost        float64 `json:"plan_cost"`
	UrgencyTier     string  `json:"urgency_tier"`
	PaymentRiskTier string  `json:"payment_risk_tier"`
	Known           bool    `json:"known"`
}
