package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"careloop/app/service/queue"
)

// Run consumes queued payment failures and replies until ctx is done or
// the queue is shut down.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}

			start := time.Now()
			if err := s.handle(ctx, event); err != nil {
				slog.Warn("Event handling error",
					slog.String("kind", string(event.Kind)),
					slog.String("customer_id", event.CustomerID),
					slog.Any("error", err),
				)
				continue
			}

			slog.Info("Processed event",
				slog.String("kind", string(event.Kind)),
				slog.String("customer_id", event.CustomerID),
				slog.Duration("duration", time.Since(start)),
			)
		}
	}
}

// Enqueue hands an event to the run loop.
func (s *Service) Enqueue(event queue.Event) bool {
	return s.queueSvc.Add(event)
}

func (s *Service) handle(ctx context.Context, event queue.Event) error {
	switch event.Kind {
	case queue.KindPaymentFailed:
		_, err := s.StartSession(ctx, event.CustomerID)
		return err
	case queue.KindReply:
		_, err := s.SubmitReply(ctx, event.CustomerID, event.Text)
		if errors.Is(err, ErrSessionTerminated) {
			slog.Info("Reply to finished session ignored",
				slog.String("customer_id", event.CustomerID),
			)
			return nil
		}
		return err
	}

	return errors.New("unknown event kind " + string(event.Kind))
}
