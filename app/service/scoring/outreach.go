package scoring

import (
	"fmt"

	"careloop/app/domain"

	"github.com/elliotchance/pie/v2"
)

type Candidate struct {
	CustomerID  string             `json:"customer_id"`
	Profile     domain.RiskProfile `json:"profile"`
	UrgencyTier string             `json:"urgency_tier,omitempty"`
}

type Scored struct {
	Candidate
	Decision domain.RetentionDecision `json:"decision"`
}

// Rank scores every candidate and orders them by priority score, highest
// first. Ties keep input order.
func Rank(candidates []Candidate) []Scored {
	scored := pie.Map(candidates, func(c Candidate) Scored {
		return Scored{Candidate: c, Decision: Score(c.Profile)}
	})

	return pie.SortStableUsing(scored, func(a, b Scored) bool {
		return a.Decision.PriorityScore > b.Decision.PriorityScore
	})
}

type OutreachPlan struct {
	TotalFailures   int      `json:"total_failures"`
	PriorityCount   int      `json:"priority_count"`
	SecondaryCount  int      `json:"secondary_count"`
	IgnoreCount     int      `json:"ignore_count"`
	AIOutreach      []Scored `json:"ai_outreach"`
	StandardDunning []Scored `json:"standard_dunning"`
	QueuedForFollow int      `json:"queued_for_follow_up"`
	Recommendation  string   `json:"recommendation"`
}

// PlanOutreach fills the AI agent capacity with priority customers first,
// then secondary ones. Ignored customers go to standard dunning.
func PlanOutreach(candidates []Candidate, capacity int) OutreachPlan {
	ranked := Rank(candidates)
	capacity = max(capacity, 0)

	byTier := func(tier domain.Tier) []Scored {
		return pie.Filter(ranked, func(s Scored) bool { return s.Decision.Tier == tier })
	}

	priority := byTier(domain.TierPriorityOutreach)
	secondary := byTier(domain.TierSecondaryOutreach)
	ignore := byTier(domain.TierIgnore)

	ai := append([]Scored{}, priority[:min(len(priority), capacity)]...)
	if remaining := capacity - len(ai); remaining > 0 {
		ai = append(ai, secondary[:min(len(secondary), remaining)]...)
	}

	queued := len(secondary) - max(len(ai)-len(priority), 0)

	return OutreachPlan{
		TotalFailures:   len(candidates),
		PriorityCount:   len(priority),
		SecondaryCount:  len(secondary),
		IgnoreCount:     len(ignore),
		AIOutreach:      ai,
		StandardDunning: ignore,
		QueuedForFollow: queued,
		Recommendation: fmt.Sprintf("Deploy AI agent to %d customers. Route %d to standard dunning. %d customers queued for follow-up.",
			len(ai), len(ignore), queued),
	}
}

// Recommendation renders the operator-facing advice for one decision.
func Recommendation(d domain.RetentionDecision, urgencyTier string) string {
	switch d.Tier {
	case domain.TierPriorityOutreach:
		switch {
		case urgencyTier == "MAXIMUM_RETENTION":
			return fmt.Sprintf("CRITICAL: Retention score %.1f/100. Life-threatening medical condition + high-value customer. "+
				"Deploy AI agent with Bridge Plan offer immediately.", d.PriorityScore)
		case d.PriorityScore >= 85:
			return fmt.Sprintf("URGENT: Retention score %.1f/100. Highly engaged customer at risk of churn. "+
				"Deploy AI agent with personalized intervention.", d.PriorityScore)
		default:
			return fmt.Sprintf("HIGH PRIORITY: Retention score %.1f/100. Strong retention opportunity. AI agent should engage.",
				d.PriorityScore)
		}
	case domain.TierSecondaryOutreach:
		return fmt.Sprintf("MODERATE PRIORITY: Retention score %.1f/100. Retention possible but not critical. "+
			"Queue for AI if capacity available.", d.PriorityScore)
	default:
		return fmt.Sprintf("LOW PRIORITY: Retention score %.1f/100. Not worth AI resources. Route to standard dunning.",
			d.PriorityScore)
	}
}
