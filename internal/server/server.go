package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/renewly/renewly/internal/auth"
	authdomain "github.com/renewly/renewly/internal/auth/domain"
	"github.com/renewly/renewly/internal/config"
	"github.com/renewly/renewly/internal/migration"
	"github.com/renewly/renewly/internal/observability"
	obsmiddleware "github.com/renewly/renewly/internal/observability/logger"
	obsmetrics "github.com/renewly/renewly/internal/observability/metrics"
	obstracing "github.com/renewly/renewly/internal/observability/tracing"
	"github.com/renewly/renewly/internal/providers/email"
	"github.com/renewly/renewly/internal/ratelimit"
	"github.com/renewly/renewly/internal/scheduler"
	"github.com/renewly/renewly/internal/subscription"
	subscriptiondomain "github.com/renewly/renewly/internal/subscription/domain"
	"github.com/renewly/renewly/internal/workflow"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	migration.Module,
	auth.Module,
	email.Module,
	ratelimit.Module,
	subscription.Module,
	workflow.Module,
	scheduler.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, limiter *ratelimit.RequestLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(limiter.Middleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, limiter *ratelimit.RequestLimiter) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, limiter)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	authSvc         authdomain.Service
	subscriptionSvc subscriptiondomain.Service
	workflowSvc     workflow.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	AuthSvc         authdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	WorkflowSvc     workflow.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("server"),
		genID:           p.GenID,
		authSvc:         p.AuthSvc,
		subscriptionSvc: p.SubscriptionSvc,
		workflowSvc:     p.WorkflowSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", s.SignUp)
		auth.POST("/sign-in", s.SignIn)
		auth.POST("/sign-out", s.SignOut)
	}

	users := api.Group("/users", s.Authorize())
	{
		users.GET("", s.ListUsers)
		users.GET("/:id", s.GetUser)
	}

	subscriptions := api.Group("/subscriptions")
	{
		// The renewal feed is served without authentication.
		subscriptions.GET("/upcoming-renewals", s.ListUpcomingRenewals)

		subscriptions.GET("", s.Authorize(), s.ListSubscriptions)
		subscriptions.POST("", s.Authorize(), s.CreateSubscription)
		subscriptions.GET("/:id", s.Authorize(), s.GetSubscription)
		subscriptions.POST("/:id", s.Authorize(), s.UpdateSubscription)
		subscriptions.DELETE("/:id", s.Authorize(), s.DeleteSubscription)
		subscriptions.PUT("/:id/cancel", s.Authorize(), s.CancelSubscription)
		subscriptions.GET("/user/:id", s.Authorize(), s.ListUserSubscriptions)
	}

	workflows := api.Group("/workflows")
	{
		workflows.POST("/subscription/reminder", s.TriggerSubscriptionReminder)
	}
}
