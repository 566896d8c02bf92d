// Package domain contains core types for the subscription service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusPastDue   Status = "past_due"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCancelled, StatusExpired, StatusPastDue:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// renewalPeriodDays is the renewal interval used to derive a renewal
// date when the caller does not supply one.
var renewalPeriodDays = map[Frequency]int{
	FrequencyDaily:   1,
	FrequencyWeekly:  7,
	FrequencyMonthly: 30,
	FrequencyYearly:  365,
}

func (f Frequency) Valid() bool {
	_, ok := renewalPeriodDays[f]
	return ok
}

// PeriodDays returns the renewal interval in days, or 0 for an unknown
// frequency.
func (f Frequency) PeriodDays() int {
	return renewalPeriodDays[f]
}

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

// Subscription is a recurring payment tracked on behalf of a user.
// UserID is always taken from the authenticated caller, never from the
// request payload.
type Subscription struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID      `gorm:"column:user_id;index;not null" json:"userId"`
	Name          string            `gorm:"type:text;not null" json:"name"`
	Price         float64           `gorm:"not null" json:"price"`
	Currency      Currency          `gorm:"type:text;not null" json:"currency"`
	Frequency     Frequency         `gorm:"type:text;not null" json:"frequency"`
	Category      string            `gorm:"type:text;not null" json:"category"`
	PaymentMethod string            `gorm:"column:payment_method;type:text;not null" json:"paymentMethod"`
	Status        Status            `gorm:"type:text;not null" json:"status"`
	StartDate     time.Time         `gorm:"column:start_date;not null" json:"startDate"`
	RenewalDate   time.Time         `gorm:"column:renewal_date;not null" json:"renewalDate"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
