package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/renewly/renewly/internal/auth/domain"
	authrepository "github.com/renewly/renewly/internal/auth/repository"
	authservice "github.com/renewly/renewly/internal/auth/service"
	"github.com/renewly/renewly/internal/auth/token"
	"github.com/renewly/renewly/internal/clock"
	"github.com/renewly/renewly/internal/config"
	subscriptiondomain "github.com/renewly/renewly/internal/subscription/domain"
	subscriptionrepository "github.com/renewly/renewly/internal/subscription/repository"
	subscriptionservice "github.com/renewly/renewly/internal/subscription/service"
	"github.com/renewly/renewly/internal/workflow"
	"github.com/renewly/renewly/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type triggerStub struct {
	runID string
	err   error
}

func (t *triggerStub) TriggerReminder(ctx context.Context, subscriptionID snowflake.ID) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return t.runID, nil
}

type emailStub struct{}

func (emailStub) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func newTestServer(t *testing.T, trigger *triggerStub) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&authdomain.User{}, &subscriptiondomain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	authSvc := authservice.NewService(authservice.ServiceParam{
		DB:     dbConn,
		Log:    log,
		GenID:  node,
		Clock:  clk,
		Repo:   authrepository.Provide(),
		Issuer: token.NewIssuer("test-secret", time.Hour, clk),
	})

	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:      dbConn,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Repo:    subscriptionrepository.Provide(),
		Trigger: trigger,
	})

	workflowSvc := workflow.NewService(workflow.ServiceParam{
		DB:    dbConn,
		Log:   log,
		Clock: clk,
		Subs:  subscriptionrepository.Provide(),
		Users: authrepository.Provide(),
		Email: emailStub{},
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:             engine,
		Cfg:             config.Config{},
		DB:              dbConn,
		Log:             log,
		GenID:           node,
		AuthSvc:         authSvc,
		SubscriptionSvc: subscriptionSvc,
		WorkflowSvc:     workflowSvc,
	})
}

func doJSON(t *testing.T, srv *Server, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func signUp(t *testing.T, srv *Server, email string) (string, string) {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/sign-up", "", gin.H{
		"name":     "Ada",
		"email":    email,
		"password": "sup3rsecret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	user := data["user"].(map[string]any)
	return data["token"].(string), user["id"].(string)
}

func createSubscription(t *testing.T, srv *Server, bearer string) map[string]any {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/subscriptions", bearer, gin.H{
		"name":          "Netflix",
		"price":         15.99,
		"currency":      "USD",
		"frequency":     "monthly",
		"category":      "entertainment",
		"paymentMethod": "credit_card",
		"startDate":     "2026-02-20T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode(t, rec)
}

func TestSignUpSignInFlow(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})

	token1, _ := signUp(t, srv, "ada@example.com")
	require.NotEmpty(t, token1)

	// Duplicate sign-up conflicts.
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/sign-up", "", gin.H{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "sup3rsecret",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/sign-in", "", gin.H{
		"email":    "ada@example.com",
		"password": "sup3rsecret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decode(t, rec)["success"])

	// Wrong password is unauthorized, unknown user is not found.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/sign-in", "", gin.H{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/sign-in", "", gin.H{
		"email":    "nobody@example.com",
		"password": "sup3rsecret",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSubscriptionEnvelope(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-42"})
	bearer, userID := signUp(t, srv, "ada@example.com")

	body := createSubscription(t, srv, bearer)
	require.Equal(t, true, body["success"])
	require.Equal(t, "run-42", body["workflowRunId"])

	data := body["data"].(map[string]any)
	require.Equal(t, "Netflix", data["name"])
	require.Equal(t, "active", data["status"])
	require.Equal(t, userID, data["userId"].(string))
}

func TestClientSuppliedOwnerIgnored(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})
	bearer, userID := signUp(t, srv, "ada@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/subscriptions", bearer, gin.H{
		"name":          "Netflix",
		"price":         15.99,
		"currency":      "USD",
		"frequency":     "monthly",
		"category":      "entertainment",
		"paymentMethod": "credit_card",
		"startDate":     "2026-02-20T00:00:00Z",
		"userId":        "999999999999",
		"owner":         "999999999999",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	require.Equal(t, userID, data["userId"].(string))
	subID := data["id"].(string)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/subscriptions/"+subID, bearer, gin.H{
		"name":   "Netflix 4K",
		"userId": "999999999999",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data = decode(t, rec)["data"].(map[string]any)
	require.Equal(t, "Netflix 4K", data["name"])
	require.Equal(t, userID, data["userId"].(string))
}

func TestCreateSubscriptionRequiresAuth(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/subscriptions", "", gin.H{"name": "Netflix"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/subscriptions", "not-a-token", gin.H{"name": "Netflix"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSubscriptionTriggerFailure(t *testing.T) {
	srv := newTestServer(t, &triggerStub{err: context.DeadlineExceeded})
	bearer, _ := signUp(t, srv, "ada@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/subscriptions", bearer, gin.H{
		"name":          "Netflix",
		"price":         15.99,
		"currency":      "USD",
		"frequency":     "monthly",
		"category":      "entertainment",
		"paymentMethod": "credit_card",
		"startDate":     "2026-02-20T00:00:00Z",
	})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	require.Equal(t, false, body["success"])
	errPayload := body["error"].(map[string]any)
	require.Equal(t, "upstream_error", errPayload["type"])
}

func TestOwnershipGuardOnSubscriptionRoutes(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})
	owner, _ := signUp(t, srv, "ada@example.com")
	stranger, strangerID := signUp(t, srv, "bob@example.com")

	body := createSubscription(t, srv, owner)
	subID := body["data"].(map[string]any)["id"].(string)

	// Unknown id is 404 before any ownership verdict.
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/subscriptions/123456789", stranger, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/subscriptions/"+subID, stranger, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/subscriptions/"+subID, stranger, gin.H{"price": 1.99})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/subscriptions/"+subID, stranger, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Listing someone else's subscriptions is denied up front.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/subscriptions/user/"+subID, stranger, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The stranger can list their own (empty) set.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/subscriptions/user/"+strangerID, stranger, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelSubscriptionRoute(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})
	bearer, _ := signUp(t, srv, "ada@example.com")

	body := createSubscription(t, srv, bearer)
	subID := body["data"].(map[string]any)["id"].(string)

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/subscriptions/"+subID+"/cancel", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	require.Equal(t, "cancelled", data["status"])

	// Cancelling again is still a success.
	rec = doJSON(t, srv, http.MethodPut, "/api/v1/subscriptions/"+subID+"/cancel", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateValidation(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})
	bearer, _ := signUp(t, srv, "ada@example.com")

	body := createSubscription(t, srv, bearer)
	subID := body["data"].(map[string]any)["id"].(string)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/subscriptions/"+subID, bearer, gin.H{"currency": "JPY"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errPayload := decode(t, rec)["error"].(map[string]any)
	require.Equal(t, "validation_error", errPayload["type"])
}

func TestUpcomingRenewalsIsPublic(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})
	bearer, _ := signUp(t, srv, "ada@example.com")
	createSubscription(t, srv, bearer)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/subscriptions/upcoming-renewals", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, true, body["success"])
	require.Len(t, body["data"].([]any), 1)
}

func TestUserRoutes(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})
	bearer, userID := signUp(t, srv, "ada@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/users", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["data"].([]any), 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/users/"+userID, bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["data"].(map[string]any)
	require.Equal(t, "ada@example.com", user["email"])
	// Password hash never leaves the server.
	_, leaked := user["passwordHash"]
	require.False(t, leaked)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/users/987654321", bearer, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReminderWorkflowRoute(t *testing.T) {
	srv := newTestServer(t, &triggerStub{runID: "run-1"})
	bearer, _ := signUp(t, srv, "ada@example.com")
	body := createSubscription(t, srv, bearer)
	subID := body["data"].(map[string]any)["id"].(string)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/workflows/subscription/reminder", "", gin.H{
		"subscriptionId": subID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	require.NotEmpty(t, data["workflowRunId"])
}
