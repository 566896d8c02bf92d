package auth

import (
	"github.com/renewly/renewly/internal/auth/repository"
	"github.com/renewly/renewly/internal/auth/service"
	"github.com/renewly/renewly/internal/auth/token"
	"github.com/renewly/renewly/internal/clock"
	"github.com/renewly/renewly/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(newIssuer),
	fx.Provide(service.NewService),
)

func newIssuer(cfg config.Config, clk clock.Clock) *token.Issuer {
	return token.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn, clk)
}
