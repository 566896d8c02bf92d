package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/renewly/renewly/internal/clock"
	"github.com/renewly/renewly/internal/ownership"
	subscriptiondomain "github.com/renewly/renewly/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    subscriptiondomain.Repository
	trigger subscriptiondomain.ReminderTrigger
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    subscriptiondomain.Repository
	Trigger subscriptiondomain.ReminderTrigger
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("subscription.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		trigger: p.Trigger,
	}
}

func (s *Service) Create(ctx context.Context, ownerID snowflake.ID, req subscriptiondomain.CreateSubscriptionRequest) (*subscriptiondomain.CreateSubscriptionResponse, error) {
	now := s.clock.Now()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, subscriptiondomain.ErrInvalidName
	}
	if req.Price <= 0 {
		return nil, subscriptiondomain.ErrInvalidPrice
	}
	currency := subscriptiondomain.Currency(req.Currency)
	if !currency.Valid() {
		return nil, subscriptiondomain.ErrInvalidCurrency
	}
	frequency := subscriptiondomain.Frequency(req.Frequency)
	if !frequency.Valid() {
		return nil, subscriptiondomain.ErrInvalidFrequency
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, subscriptiondomain.ErrInvalidCategory
	}
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		return nil, subscriptiondomain.ErrInvalidPaymentMethod
	}
	if req.StartDate.IsZero() || req.StartDate.After(now) {
		return nil, subscriptiondomain.ErrInvalidStartDate
	}

	renewalDate := req.StartDate.AddDate(0, 0, frequency.PeriodDays())
	if req.RenewalDate != nil {
		renewalDate = *req.RenewalDate
		if !renewalDate.After(req.StartDate) {
			return nil, subscriptiondomain.ErrInvalidRenewalDate
		}
	}

	// A renewal date already behind us means the subscription lapsed
	// before it was ever recorded.
	status := subscriptiondomain.StatusActive
	if renewalDate.Before(now) {
		status = subscriptiondomain.StatusExpired
	}

	subscription := &subscriptiondomain.Subscription{
		ID:            s.genID.Generate(),
		UserID:        ownerID,
		Name:          name,
		Price:         req.Price,
		Currency:      currency,
		Frequency:     frequency,
		Category:      category,
		PaymentMethod: paymentMethod,
		Status:        status,
		StartDate:     req.StartDate,
		RenewalDate:   renewalDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, subscription); err != nil {
		return nil, err
	}

	// The insert stands regardless of what the trigger does; a trigger
	// failure is reported as an upstream error on an otherwise created
	// subscription.
	runID, err := s.trigger.TriggerReminder(ctx, subscription.ID)
	if err != nil {
		s.log.Warn("reminder workflow trigger failed",
			zap.String("subscription_id", subscription.ID.String()),
			zap.Error(err),
		)
		return nil, subscriptiondomain.ErrReminderTrigger
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("user_id", ownerID.String()),
		zap.String("workflow_run_id", runID),
	)

	return &subscriptiondomain.CreateSubscriptionResponse{
		Subscription:  subscription,
		WorkflowRunID: runID,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id, callerID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	subscription, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	if err := ownership.Check(subscription.UserID, callerID); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *Service) Update(ctx context.Context, id, callerID snowflake.ID, patch subscriptiondomain.UpdateSubscriptionRequest) (*subscriptiondomain.Subscription, error) {
	now := s.clock.Now()

	var updated *subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if err := ownership.Check(subscription.UserID, callerID); err != nil {
			return err
		}

		if err := applyPatch(subscription, patch, now); err != nil {
			return err
		}

		subscription.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, subscription); err != nil {
			return err
		}
		updated = subscription
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// applyPatch merges non-nil patch fields into the subscription,
// validating each the same way create does. The owner is not part of
// the patch and cannot change.
func applyPatch(subscription *subscriptiondomain.Subscription, patch subscriptiondomain.UpdateSubscriptionRequest, now time.Time) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return subscriptiondomain.ErrInvalidName
		}
		subscription.Name = name
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return subscriptiondomain.ErrInvalidPrice
		}
		subscription.Price = *patch.Price
	}
	if patch.Currency != nil {
		currency := subscriptiondomain.Currency(*patch.Currency)
		if !currency.Valid() {
			return subscriptiondomain.ErrInvalidCurrency
		}
		subscription.Currency = currency
	}
	if patch.Frequency != nil {
		frequency := subscriptiondomain.Frequency(*patch.Frequency)
		if !frequency.Valid() {
			return subscriptiondomain.ErrInvalidFrequency
		}
		subscription.Frequency = frequency
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			return subscriptiondomain.ErrInvalidCategory
		}
		subscription.Category = category
	}
	if patch.PaymentMethod != nil {
		paymentMethod := strings.TrimSpace(*patch.PaymentMethod)
		if paymentMethod == "" {
			return subscriptiondomain.ErrInvalidPaymentMethod
		}
		subscription.PaymentMethod = paymentMethod
	}
	if patch.Status != nil {
		status := subscriptiondomain.Status(*patch.Status)
		if !status.Valid() {
			return subscriptiondomain.ErrInvalidStatus
		}
		subscription.Status = status
	}
	if patch.StartDate != nil {
		if patch.StartDate.IsZero() || patch.StartDate.After(now) {
			return subscriptiondomain.ErrInvalidStartDate
		}
		subscription.StartDate = *patch.StartDate
	}
	if patch.RenewalDate != nil {
		subscription.RenewalDate = *patch.RenewalDate
	}
	if !subscription.RenewalDate.After(subscription.StartDate) {
		return subscriptiondomain.ErrInvalidRenewalDate
	}
	if patch.Metadata != nil {
		subscription.Metadata = datatypes.JSONMap(patch.Metadata)
	}
	return nil
}

func (s *Service) Cancel(ctx context.Context, id, callerID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	now := s.clock.Now()

	var cancelled *subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if err := ownership.Check(subscription.UserID, callerID); err != nil {
			return err
		}

		// Cancelling twice is a no-op success.
		if subscription.Status == subscriptiondomain.StatusCancelled {
			cancelled = subscription
			return nil
		}
		if subscription.Status != subscriptiondomain.StatusActive {
			return subscriptiondomain.ErrInvalidTransition
		}

		subscription.Status = subscriptiondomain.StatusCancelled
		subscription.UpdatedAt = now
		if err := s.repo.UpdateStatus(ctx, tx, subscription.ID, subscriptiondomain.StatusCancelled, now); err != nil {
			return err
		}
		cancelled = subscription
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

func (s *Service) Delete(ctx context.Context, id, callerID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if err := ownership.Check(subscription.UserID, callerID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, subscription.ID)
	})
}

func (s *Service) ListByUser(ctx context.Context, userID, callerID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	// Ownership is decided on the requested id alone, before any query.
	if err := ownership.Check(userID, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) List(ctx context.Context) ([]subscriptiondomain.Subscription, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) ListUpcomingRenewals(ctx context.Context) ([]subscriptiondomain.Subscription, error) {
	return s.repo.ListRenewingAfter(ctx, s.db, s.clock.Now())
}
