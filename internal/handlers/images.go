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

// ImagePipeline runs image generation, single scene or whole project.
type ImagePipeline interface {
	GenerateImage(ctx context.Context, userID uuid.UUID, req models.GenerateImageRequest) (*models.GenerateImageResponse, error)
	GenerateAllImages(ctx context.Context, userID, projectID uuid.UUID) (*models.GenerateAllImagesResponse, error)
}

type ImageHandler struct {
	pipeline ImagePipeline
}

func NewImageHandler(pipeline ImagePipeline) *ImageHandler {
	return &ImageHandler{pipeline: pipeline}
}

func (h *ImageHandler) Generate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, &apperr.AuthError{Message: "missing user identity"})
		return
	}

	var req models.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(c, &apperr.ValidationError{Field: "prompt", Message: "prompt is required"})
		return
	}
	if req.ProjectID != "" && req.SceneNumber <= 0 {
		respondError(c, &apperr.ValidationError{Field: "sceneNumber", Message: "sceneNumber is required when projectId is set"})
		return
	}

	resp, err := h.pipeline.GenerateImage(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateAll fans out image generation across every scene of the project.
func (h *ImageHandler) GenerateAll(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, &apperr.AuthError{Message: "missing user identity"})
		return
	}
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		respondError(c, &apperr.ValidationError{Field: "project_id", Message: "must be a valid UUID"})
		return
	}

	resp, err := h.pipeline.GenerateAllImages(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
