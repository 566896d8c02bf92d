package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	subscriptiondomain "github.com/renewly/renewly/internal/subscription/domain"
	"go.uber.org/zap"
)

type reminderWorkflowRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

// TriggerSubscriptionReminder accepts a reminder workflow run and
// processes it in the background. The response carries the run id so
// the caller can correlate logs.
func (s *Server) TriggerSubscriptionReminder(c *gin.Context) {
	var req reminderWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	subscriptionID, err := snowflake.ParseString(req.SubscriptionID)
	if err != nil {
		AbortWithError(c, subscriptiondomain.ErrSubscriptionNotFound)
		return
	}

	runID := uuid.NewString()
	log := s.log.With(
		zap.String("workflow_run_id", runID),
		zap.String("subscription_id", subscriptionID.String()),
	)

	go func() {
		ctx := context.WithoutCancel(c.Request.Context())
		if _, err := s.workflowSvc.ProcessReminder(ctx, subscriptionID); err != nil {
			log.Warn("reminder workflow run failed", zap.Error(err))
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"workflowRunId": runID},
	})
}
