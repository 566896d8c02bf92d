package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// CreateSubscriptionRequest carries the client-settable fields for a new
// subscription. Owner and status are deliberately absent: the owner is
// the authenticated caller and new subscriptions start out active.
type CreateSubscriptionRequest struct {
	Name          string     `json:"name"`
	Price         float64    `json:"price"`
	Currency      string     `json:"currency"`
	Frequency     string     `json:"frequency"`
	Category      string     `json:"category"`
	PaymentMethod string     `json:"paymentMethod"`
	StartDate     time.Time  `json:"startDate"`
	RenewalDate   *time.Time `json:"renewalDate,omitempty"`
}

// UpdateSubscriptionRequest is a replace-by-key patch: only non-nil
// fields are applied. There is no owner field, so ownership can never
// change through an update.
type UpdateSubscriptionRequest struct {
	Name          *string        `json:"name,omitempty"`
	Price         *float64       `json:"price,omitempty"`
	Currency      *string        `json:"currency,omitempty"`
	Frequency     *string        `json:"frequency,omitempty"`
	Category      *string        `json:"category,omitempty"`
	PaymentMethod *string        `json:"paymentMethod,omitempty"`
	Status        *string        `json:"status,omitempty"`
	StartDate     *time.Time     `json:"startDate,omitempty"`
	RenewalDate   *time.Time     `json:"renewalDate,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// CreateSubscriptionResponse pairs the persisted entity with the run id
// returned by the reminder workflow trigger. WorkflowRunID is passed
// through uninterpreted.
type CreateSubscriptionResponse struct {
	Subscription  *Subscription `json:"subscription"`
	WorkflowRunID string        `json:"workflowRunId,omitempty"`
}

// ReminderTrigger starts the reminder workflow for a newly created
// subscription. Implemented by the workflow package; declared here to
// keep the dependency pointing outward.
type ReminderTrigger interface {
	TriggerReminder(ctx context.Context, subscriptionID snowflake.ID) (string, error)
}

type Service interface {
	Create(ctx context.Context, ownerID snowflake.ID, req CreateSubscriptionRequest) (*CreateSubscriptionResponse, error)
	GetByID(ctx context.Context, id, callerID snowflake.ID) (*Subscription, error)
	Update(ctx context.Context, id, callerID snowflake.ID, patch UpdateSubscriptionRequest) (*Subscription, error)
	Cancel(ctx context.Context, id, callerID snowflake.ID) (*Subscription, error)
	Delete(ctx context.Context, id, callerID snowflake.ID) error
	ListByUser(ctx context.Context, userID, callerID snowflake.ID) ([]Subscription, error)
	List(ctx context.Context) ([]Subscription, error)
	ListUpcomingRenewals(ctx context.Context) ([]Subscription, error)
}
