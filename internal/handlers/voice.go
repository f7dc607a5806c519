package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/models"
)

// VoiceGateway synthesizes narration audio.
type VoiceGateway interface {
	Synthesize(ctx context.Context, narration string) ([]byte, string, error)
}

type VoiceHandler struct {
	voice VoiceGateway
}

func NewVoiceHandler(voice VoiceGateway) *VoiceHandler {
	return &VoiceHandler{voice: voice}
}

func (h *VoiceHandler) Generate(c *gin.Context) {
	var req models.GenerateVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if strings.TrimSpace(req.Narration) == "" {
		respondError(c, &apperr.ValidationError{Field: "narration", Message: "narration is required"})
		return
	}

	audio, contentType, err := h.voice.Synthesize(c.Request.Context(), req.Narration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateVoiceResponse{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		ContentType: contentType,
	})
}
