// Package workflow implements the subscription reminder workflow: the
// outbound trigger fired on create, and the inbound processing that
// renders and delivers reminder emails.
package workflow

import (
	"context"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/renewly/renewly/internal/auth/domain"
	"github.com/renewly/renewly/internal/clock"
	"github.com/renewly/renewly/internal/observability/metrics"
	"github.com/renewly/renewly/internal/providers/email"
	"github.com/renewly/renewly/internal/reminder"
	subscriptiondomain "github.com/renewly/renewly/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Result reports what a reminder run did for one subscription.
type Result struct {
	Sent  bool
	Label string
}

type Service interface {
	ProcessReminder(ctx context.Context, subscriptionID snowflake.ID) (Result, error)
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	subs    subscriptiondomain.Repository
	users   authdomain.Repository
	email   email.Provider
	metrics *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Subs    subscriptiondomain.Repository
	Users   authdomain.Repository
	Email   email.Provider
	Metrics *metrics.Metrics
}

func NewService(p ServiceParam) Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("workflow.service"),
		clock:   p.Clock,
		subs:    p.Subs,
		users:   p.Users,
		email:   p.Email,
		metrics: p.Metrics,
	}
}

const lastReminderKey = "last_reminder"

func (s *service) ProcessReminder(ctx context.Context, subscriptionID snowflake.ID) (Result, error) {
	subscription, err := s.subs.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return Result{}, err
	}
	if subscription == nil {
		return Result{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	log := s.log.With(zap.String("subscription_id", subscriptionID.String()))

	if subscription.Status != subscriptiondomain.StatusActive {
		log.Info("skipping reminder, subscription not active",
			zap.String("status", string(subscription.Status)))
		return Result{}, nil
	}

	now := s.clock.Now()
	if subscription.RenewalDate.Before(now) {
		log.Info("skipping reminder, renewal date passed",
			zap.Time("renewal_date", subscription.RenewalDate))
		return Result{}, nil
	}

	daysLeft := int(subscription.RenewalDate.Sub(now).Hours() / 24)
	template, ok := reminder.SelectTemplate(daysLeft)
	if !ok {
		return Result{}, nil
	}

	// Each offset label fires at most once per subscription.
	if last, _ := subscription.Metadata[lastReminderKey].(string); last == template.Label {
		return Result{}, nil
	}

	user, err := s.users.FindByID(ctx, s.db, subscription.UserID)
	if err != nil {
		return Result{}, err
	}
	if user == nil {
		return Result{}, authdomain.ErrUserNotFound
	}

	data := reminder.TemplateData{
		UserName:         user.Name,
		SubscriptionName: subscription.Name,
		PlanName:         subscription.Name,
		Price:            reminder.FormatPrice(string(subscription.Currency), subscription.Price, string(subscription.Frequency)),
		PaymentMethod:    subscription.PaymentMethod,
		RenewalDate:      reminder.FormatRenewalDate(subscription.RenewalDate),
		DaysLeft:         daysLeft,
	}

	if err := s.email.Send(ctx, []string{user.Email}, template.Subject(data), template.Body(data)); err != nil {
		return Result{}, err
	}

	if subscription.Metadata == nil {
		subscription.Metadata = datatypes.JSONMap{}
	}
	subscription.Metadata[lastReminderKey] = template.Label
	subscription.UpdatedAt = now
	if err := s.subs.Update(ctx, s.db, subscription); err != nil {
		return Result{}, err
	}

	s.metrics.RecordReminderSent(ctx, template.Label)
	log.Info("reminder sent",
		zap.String("label", template.Label),
		zap.String("to", user.Email))

	return Result{Sent: true, Label: template.Label}, nil
}
