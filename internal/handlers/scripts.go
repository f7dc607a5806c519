package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/models"
)

// ScriptGateway produces a structured script for a topic.
type ScriptGateway interface {
	GenerateScript(ctx context.Context, topic, styleID string) (*models.Script, error)
}

type ScriptHandler struct {
	llm ScriptGateway
}

func NewScriptHandler(llm ScriptGateway) *ScriptHandler {
	return &ScriptHandler{llm: llm}
}

func (h *ScriptHandler) Generate(c *gin.Context) {
	var req models.GenerateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		respondError(c, &apperr.ValidationError{Field: "topic", Message: "topic is required"})
		return
	}

	script, err := h.llm.GenerateScript(c.Request.Context(), req.Topic, req.VisualStyle)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateScriptResponse{Script: script})
}
