package workflow

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
	"github.com/renewly/renewly/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentEmail struct {
	to      []string
	subject string
	body    string
}

type emailStub struct {
	sent []sentEmail
	err  error
}

func (e *emailStub) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if e.err != nil {
		return e.err
	}
	e.sent = append(e.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fixture struct {
	svc   Service
	db    *gorm.DB
	clk   *clock.FakeClock
	email *emailStub
	node  *snowflake.Node
	subs  subscriptiondomain.Repository
	users authdomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&authdomain.User{}, &subscriptiondomain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	stub := &emailStub{}
	subs := subscriptionrepository.Provide()
	users := authrepository.Provide()

	svc := NewService(ServiceParam{
		DB:    dbConn,
		Log:   zap.NewNop(),
		Clock: clk,
		Subs:  subs,
		Users: users,
		Email: stub,
	})

	return &fixture{svc: svc, db: dbConn, clk: clk, email: stub, node: node, subs: subs, users: users}
}

func (f *fixture) seed(t *testing.T, status subscriptiondomain.Status, renewalDate time.Time) *subscriptiondomain.Subscription {
	t.Helper()

	now := f.clk.Now()
	user := &authdomain.User{
		ID:        f.node.Generate(),
		Name:      "Ada",
		Email:     "ada@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.users.Insert(context.Background(), f.db, user))

	subscription := &subscriptiondomain.Subscription{
		ID:            f.node.Generate(),
		UserID:        user.ID,
		Name:          "Pro Plan",
		Price:         10,
		Currency:      subscriptiondomain.CurrencyUSD,
		Frequency:     subscriptiondomain.FrequencyMonthly,
		Category:      "software",
		PaymentMethod: "VISA **** 4242",
		Status:        status,
		StartDate:     now.AddDate(0, -1, 0),
		RenewalDate:   renewalDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.subs.Insert(context.Background(), f.db, subscription))
	return subscription
}

func TestProcessReminderSendsAtOffset(t *testing.T) {
	f := newFixture(t)
	subscription := f.seed(t, subscriptiondomain.StatusActive, f.clk.Now().AddDate(0, 0, 5))

	result, err := f.svc.ProcessReminder(context.Background(), subscription.ID)
	require.NoError(t, err)
	require.True(t, result.Sent)
	require.Equal(t, "5 days before reminder", result.Label)

	require.Len(t, f.email.sent, 1)
	sent := f.email.sent[0]
	require.Equal(t, []string{"ada@example.com"}, sent.to)
	require.Contains(t, sent.subject, "Renews in 5 Days")
	require.Contains(t, sent.body, "Ada")
	require.Contains(t, sent.body, "<strong>Pro Plan</strong>")
	require.Contains(t, sent.body, "(5 days from today)")
}

func TestProcessReminderSendsOncePerOffset(t *testing.T) {
	f := newFixture(t)
	subscription := f.seed(t, subscriptiondomain.StatusActive, f.clk.Now().AddDate(0, 0, 7))

	result, err := f.svc.ProcessReminder(context.Background(), subscription.ID)
	require.NoError(t, err)
	require.True(t, result.Sent)

	// Same offset again: nothing new goes out.
	result, err = f.svc.ProcessReminder(context.Background(), subscription.ID)
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Len(t, f.email.sent, 1)

	// Two days later the 5-day mark fires.
	f.clk.Advance(48 * time.Hour)
	result, err = f.svc.ProcessReminder(context.Background(), subscription.ID)
	require.NoError(t, err)
	require.True(t, result.Sent)
	require.Equal(t, "5 days before reminder", result.Label)
	require.Len(t, f.email.sent, 2)
}

func TestProcessReminderSkipsInactive(t *testing.T) {
	f := newFixture(t)
	subscription := f.seed(t, subscriptiondomain.StatusCancelled, f.clk.Now().AddDate(0, 0, 7))

	result, err := f.svc.ProcessReminder(context.Background(), subscription.ID)
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Empty(t, f.email.sent)
}

func TestProcessReminderSkipsPassedRenewal(t *testing.T) {
	f := newFixture(t)
	subscription := f.seed(t, subscriptiondomain.StatusActive, f.clk.Now().AddDate(0, 0, -1))

	result, err := f.svc.ProcessReminder(context.Background(), subscription.ID)
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Empty(t, f.email.sent)
}

func TestProcessReminderSkipsOffMark(t *testing.T) {
	f := newFixture(t)
	subscription := f.seed(t, subscriptiondomain.StatusActive, f.clk.Now().AddDate(0, 0, 4))

	result, err := f.svc.ProcessReminder(context.Background(), subscription.ID)
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Empty(t, f.email.sent)
}

func TestProcessReminderUnknownSubscription(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ProcessReminder(context.Background(), f.node.Generate())
	require.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
}
