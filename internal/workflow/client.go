package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/renewly/renewly/internal/config"
	"github.com/renewly/renewly/internal/observability/metrics"
	subscriptiondomain "github.com/renewly/renewly/internal/subscription/domain"
)

const triggerPath = "/api/v1/workflows/subscription/reminder"

// TriggerClient starts the reminder workflow over HTTP. One attempt,
// no retries: a failed trigger is reported to the caller instead.
type TriggerClient struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

func NewTriggerClient(cfg config.Config, m *metrics.Metrics) subscriptiondomain.ReminderTrigger {
	return &TriggerClient{
		baseURL: cfg.ServerURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		metrics: m,
	}
}

type triggerRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

type triggerResponse struct {
	Success bool `json:"success"`
	Data    struct {
		WorkflowRunID string `json:"workflowRunId"`
	} `json:"data"`
}

func (c *TriggerClient) TriggerReminder(ctx context.Context, subscriptionID snowflake.ID) (string, error) {
	body, err := json.Marshal(triggerRequest{SubscriptionID: subscriptionID.String()})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+triggerPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordWorkflowTrigger(ctx, "error")
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordWorkflowTrigger(ctx, "error")
		return "", fmt.Errorf("workflow trigger returned status %d", resp.StatusCode)
	}

	var out triggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.metrics.RecordWorkflowTrigger(ctx, "error")
		return "", err
	}

	c.metrics.RecordWorkflowTrigger(ctx, "ok")
	return out.Data.WorkflowRunID, nil
}
