package workflow

import "go.uber.org/fx"

var Module = fx.Module("workflow.service",
	fx.Provide(NewTriggerClient),
	fx.Provide(NewService),
)
