package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/middleware"
	"videoai-studio-backend/internal/models"
)

// VideoPipeline animates one scene image into a stored video clip.
type VideoPipeline interface {
	GenerateVideo(ctx context.Context, userID uuid.UUID, req models.GenerateVideoRequest) (*models.GenerateVideoResponse, error)
}

type VideoHandler struct {
	pipeline VideoPipeline
}

func NewVideoHandler(pipeline VideoPipeline) *VideoHandler {
	return &VideoHandler{pipeline: pipeline}
}

func (h *VideoHandler) Generate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, &apperr.AuthError{Message: "missing user identity"})
		return
	}

	var req models.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(c, &apperr.ValidationError{Field: "prompt", Message: "prompt is required"})
		return
	}
	if req.ProjectID == "" {
		respondError(c, &apperr.ValidationError{Field: "projectId", Message: "projectId is required"})
		return
	}
	if req.SceneNumber <= 0 {
		respondError(c, &apperr.ValidationError{Field: "sceneNumber", Message: "sceneNumber must be positive"})
		return
	}

	resp, err := h.pipeline.GenerateVideo(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
