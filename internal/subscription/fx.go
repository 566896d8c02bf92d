package subscription

import (
	"github.com/renewly/renewly/internal/subscription/repository"
	"github.com/renewly/renewly/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
