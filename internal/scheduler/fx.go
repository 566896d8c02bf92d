package scheduler

import (
	"context"

	"github.com/renewly/renewly/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(provideScheduler),
	fx.Invoke(runScheduler),
)

func provideScheduler(p Params, cfg config.Config) (*Scheduler, error) {
	return New(p, cfg.ReminderInterval)
}

func runScheduler(lc fx.Lifecycle, sched *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
