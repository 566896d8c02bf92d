package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/renewly/renewly/internal/auth/domain"
	authrepository "github.com/renewly/renewly/internal/auth/repository"
	"github.com/renewly/renewly/internal/clock"
	subscriptiondomain "github.com/renewly/renewly/internal/subscription/domain"
	subscriptionrepository "github.com/renewly/renewly/internal/subscription/repository"
	subscriptionservice "github.com/renewly/renewly/internal/subscription/service"
	"github.com/renewly/renewly/internal/workflow"
	"github.com/renewly/renewly/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type triggerStub struct{}

func (triggerStub) TriggerReminder(ctx context.Context, subscriptionID snowflake.ID) (string, error) {
	return "run-1", nil
}

type emailStub struct {
	subjects []string
}

func (e *emailStub) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	e.subjects = append(e.subjects, subject)
	return nil
}

func newScheduler(t *testing.T, clk *clock.FakeClock, email *emailStub) (*Scheduler, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&authdomain.User{}, &subscriptiondomain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	subs := subscriptionrepository.Provide()
	users := authrepository.Provide()

	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:      dbConn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    subs,
		Trigger: triggerStub{},
	})

	workflowSvc := workflow.NewService(workflow.ServiceParam{
		DB:    dbConn,
		Log:   zap.NewNop(),
		Clock: clk,
		Subs:  subs,
		Users: users,
		Email: email,
	})

	sched, err := New(Params{
		Log:             zap.NewNop(),
		Clock:           clk,
		SubscriptionSvc: subscriptionSvc,
		WorkflowSvc:     workflowSvc,
	}, time.Hour)
	require.NoError(t, err)

	return sched, dbConn, node
}

// Sweeping daily across the renewal window delivers exactly one email
// per reminder mark.
func TestRunOnceDailyAcrossRenewalWindow(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	email := &emailStub{}
	sched, dbConn, node := newScheduler(t, clk, email)

	users := authrepository.Provide()
	subs := subscriptionrepository.Provide()

	user := &authdomain.User{
		ID:        node.Generate(),
		Name:      "Ada",
		Email:     "ada@example.com",
		CreatedAt: clk.Now(),
		UpdatedAt: clk.Now(),
	}
	require.NoError(t, users.Insert(context.Background(), dbConn, user))

	subscription := &subscriptiondomain.Subscription{
		ID:            node.Generate(),
		UserID:        user.ID,
		Name:          "Pro Plan",
		Price:         10,
		Currency:      subscriptiondomain.CurrencyUSD,
		Frequency:     subscriptiondomain.FrequencyMonthly,
		Category:      "software",
		PaymentMethod: "VISA **** 4242",
		Status:        subscriptiondomain.StatusActive,
		StartDate:     clk.Now().AddDate(0, -1, 0),
		RenewalDate:   clk.Now().AddDate(0, 0, 9),
		CreatedAt:     clk.Now(),
		UpdatedAt:     clk.Now(),
	}
	require.NoError(t, subs.Insert(context.Background(), dbConn, subscription))

	for day := 0; day < 10; day++ {
		require.NoError(t, sched.RunOnce(context.Background()))
		clk.Advance(24 * time.Hour)
	}

	require.Len(t, email.subjects, 4)
	require.Contains(t, email.subjects[0], "Renews in 7 Days")
	require.Contains(t, email.subjects[1], "Renews in 5 Days")
	require.Contains(t, email.subjects[2], "Renews in 2 Days")
	require.Contains(t, email.subjects[3], "Renews in 1 Days")
}

// A cancelled subscription never produces email even inside the window.
func TestRunOnceSkipsCancelled(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	email := &emailStub{}
	sched, dbConn, node := newScheduler(t, clk, email)

	subs := subscriptionrepository.Provide()
	subscription := &subscriptiondomain.Subscription{
		ID:            node.Generate(),
		UserID:        node.Generate(),
		Name:          "Pro Plan",
		Price:         10,
		Currency:      subscriptiondomain.CurrencyUSD,
		Frequency:     subscriptiondomain.FrequencyMonthly,
		Category:      "software",
		PaymentMethod: "VISA **** 4242",
		Status:        subscriptiondomain.StatusCancelled,
		StartDate:     clk.Now().AddDate(0, -1, 0),
		RenewalDate:   clk.Now().AddDate(0, 0, 7),
		CreatedAt:     clk.Now(),
		UpdatedAt:     clk.Now(),
	}
	require.NoError(t, subs.Insert(context.Background(), dbConn, subscription))

	require.NoError(t, sched.RunOnce(context.Background()))
	require.Empty(t, email.subjects)
}
