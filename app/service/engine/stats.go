package engine

import (
	"context"
	"math"

	"careloop/app/domain"
	"careloop/app/service/scoring"
	"careloop/app/service/signals"

	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

const outreachConcurrency = 8

type Stats struct {
	SessionsProcessed int     `json:"sessions_processed"`
	Active            int     `json:"active"`
	Completed         int     `json:"completed"`
	Cancelled         int     `json:"cancelled"`
	ChurnPrevented    int     `json:"churn_prevented"`
	RevenueImpact     float64 `json:"revenue_impact"`
	// Percent of finished sessions that ended with the customer retained
	RetentionRate float64 `json:"retention_rate"`
}

func (s *Service) Stats() Stats {
	var stats Stats

	for _, session := range s.Sessions() {
		stats.SessionsProcessed++
		stats.RevenueImpact += session.RevenueImpact

		switch session.Stage {
		case domain.StageCompleted:
			stats.Completed++
		case domain.StageCancelled:
			stats.Cancelled++
		default:
			stats.Active++
		}

		if session.ChurnPrevented {
			stats.ChurnPrevented++
		}
	}

	if finished := stats.Completed + stats.Cancelled; finished > 0 {
		stats.RetentionRate = math.Round(float64(stats.ChurnPrevented)/float64(finished)*1000) / 10
	}
	stats.RevenueImpact = math.Round(stats.RevenueImpact*100) / 100

	return stats
}

// OutreachPlan scores every known customer and fills the AI agent capacity.
// A non-positive capacity uses the configured one.
func (s *Service) OutreachPlan(ctx context.Context, capacity int) (scoring.OutreachPlan, error) {
	if capacity <= 0 {
		capacity = s.cfg.Engine.OutreachCapacity
	}

	ids, err := s.aggregator.Provider().CustomerIDs(ctx)
	if err != nil {
		return scoring.OutreachPlan{}, oops.In("engine").Wrapf(err, "list customers")
	}

	candidates := make([]scoring.Candidate, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(outreachConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			snapshot, err := s.aggregator.Aggregate(gctx, id)
			if err != nil {
				return err
			}

			candidates[i] = candidate(id, snapshot)

			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return scoring.OutreachPlan{}, oops.In("engine").Wrapf(err, "score customers")
	}

	return scoring.PlanOutreach(candidates, capacity), nil
}

func candidate(id string, snapshot signals.Snapshot) scoring.Candidate {
	return scoring.Candidate{
		CustomerID:  id,
		Profile:     snapshot.Profile,
		UrgencyTier: snapshot.Medical.Tier,
	}
}
