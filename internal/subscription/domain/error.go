package domain

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrInvalidName          = errors.New("invalid_subscription_name")
	ErrInvalidPrice         = errors.New("invalid_subscription_price")
	ErrInvalidCurrency      = errors.New("invalid_subscription_currency")
	ErrInvalidFrequency     = errors.New("invalid_subscription_frequency")
	ErrInvalidCategory      = errors.New("invalid_subscription_category")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidStatus        = errors.New("invalid_subscription_status")
	ErrInvalidStartDate     = errors.New("invalid_start_date")
	ErrInvalidRenewalDate   = errors.New("invalid_renewal_date")
	ErrInvalidTransition    = errors.New("invalid_status_transition")
	ErrReminderTrigger      = errors.New("reminder_trigger_failed")
)
