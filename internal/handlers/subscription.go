package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/middleware"
	"videoai-studio-backend/internal/models"
)

// QuotaStore exposes the quota gate's read side.
type QuotaStore interface {
	CheckVideoGenerationLimit(userID uuid.UUID) (*models.QuotaCheck, error)
}

type SubscriptionHandler struct {
	store QuotaStore
}

func NewSubscriptionHandler(store QuotaStore) *SubscriptionHandler {
	return &SubscriptionHandler{store: store}
}

// Get reports the caller's subscription and quota state. A missing
// subscription is a normal 200 response with hasAccess false, not an error.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, &apperr.AuthError{Message: "missing user identity"})
		return
	}

	check, err := h.store.CheckVideoGenerationLimit(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.SubscriptionResponse{
		HasAccess:         check.Allowed,
		Reason:            check.Reason,
		VideosGenerated:   check.VideosGenerated,
		VideosQuota:       check.VideosQuota,
		CancelAtPeriodEnd: check.CancelAtPeriodEnd,
	}
	if check.PlanName.Valid {
		resp.PlanName = check.PlanName.String
	}
	if check.PlanDisplayName.Valid {
		resp.PlanDisplayName = check.PlanDisplayName.String
	}
	if check.CurrentPeriodEnd.Valid {
		t := check.CurrentPeriodEnd.Time
		resp.CurrentPeriodEnd = &t
	}

	c.JSON(http.StatusOK, resp)
}
