package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the persistence boundary for subscriptions. Every call
// receives the gorm handle so services can pass either the root handle
// or a transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Subscription, error)
	List(ctx context.Context, db *gorm.DB) ([]Subscription, error)
	ListRenewingAfter(ctx context.Context, db *gorm.DB, now time.Time) ([]Subscription, error)
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, updatedAt time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
