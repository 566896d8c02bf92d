// Package scheduler drives reminder delivery: on every tick it lists
// subscriptions with an upcoming renewal and runs the reminder workflow
// for each. The reminder policy decides which of them produce email.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/renewly/renewly/internal/clock"
	subscriptiondomain "github.com/renewly/renewly/internal/subscription/domain"
	"github.com/renewly/renewly/internal/workflow"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	SubscriptionSvc subscriptiondomain.Service
	WorkflowSvc     workflow.Service
}

type Scheduler struct {
	log             *zap.Logger
	clock           clock.Clock
	interval        time.Duration
	subscriptionSvc subscriptiondomain.Service
	workflowSvc     workflow.Service
}

func New(p Params, interval time.Duration) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.SubscriptionSvc == nil || p.WorkflowSvc == nil {
		return nil, ErrInvalidConfig
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler"),
		clock:           p.Clock,
		interval:        interval,
		subscriptionSvc: p.SubscriptionSvc,
		workflowSvc:     p.WorkflowSvc,
	}, nil
}

// RunOnce sweeps every upcoming renewal once.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	subscriptions, err := s.subscriptionSvc.ListUpcomingRenewals(ctx)
	if err != nil {
		return err
	}

	var errs error
	sent := 0
	for _, subscription := range subscriptions {
		result, err := s.workflowSvc.ProcessReminder(ctx, subscription.ID)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if result.Sent {
			sent++
		}
	}

	if sent > 0 {
		s.log.Info("reminder sweep finished",
			zap.Int("candidates", len(subscriptions)),
			zap.Int("sent", sent))
	}
	return errs
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("reminder sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
