package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/handlers"
	"videoai-studio-backend/internal/middleware"
	"videoai-studio-backend/internal/models"
)

type fakeVideoPipeline struct {
	calls int
	resp  *models.GenerateVideoResponse
	err   error
}

func (f *fakeVideoPipeline) GenerateVideo(ctx context.Context, userID uuid.UUID, req models.GenerateVideoRequest) (*models.GenerateVideoResponse, error) {
	f.calls++
	return f.resp, f.err
}

func videoRouter(pipeline *fakeVideoPipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uuid.New().String())
	})
	router.POST("/generate/video", handlers.NewVideoHandler(pipeline).Generate)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateVideo_Success(t *testing.T) {
	pipeline := &fakeVideoPipeline{resp: &models.GenerateVideoResponse{
		Status:          "completed",
		VideoURL:        "https://storage.test/clip.mp4",
		VideosGenerated: 4,
		VideosQuota:     10,
	}}
	router := videoRouter(pipeline)

	w := postJSON(t, router, "/generate/video", models.GenerateVideoRequest{
		ImageURL:    "https://cdn.test/1.png",
		Prompt:      "slow zoom",
		ProjectID:   uuid.New().String(),
		SceneNumber: 1,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.GenerateVideoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://storage.test/clip.mp4", resp.VideoURL)
	assert.Equal(t, 4, resp.VideosGenerated)
	assert.Equal(t, 1, pipeline.calls)
}

func TestGenerateVideo_MissingPrompt(t *testing.T) {
	pipeline := &fakeVideoPipeline{}
	router := videoRouter(pipeline)

	w := postJSON(t, router, "/generate/video", models.GenerateVideoRequest{
		ImageURL:    "https://cdn.test/1.png",
		ProjectID:   uuid.New().String(),
		SceneNumber: 1,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, pipeline.calls)
}

func TestGenerateVideo_QuotaExceededStatus(t *testing.T) {
	pipeline := &fakeVideoPipeline{err: &apperr.QuotaError{
		Reason: apperr.ReasonQuotaExceeded,
		Used:   10,
		Quota:  10,
	}}
	router := videoRouter(pipeline)

	w := postJSON(t, router, "/generate/video", models.GenerateVideoRequest{
		ImageURL:    "https://cdn.test/1.png",
		Prompt:      "zoom",
		ProjectID:   uuid.New().String(),
		SceneNumber: 1,
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperr.ReasonQuotaExceeded, resp.Error)
}

func TestGenerateVideo_NoSubscriptionStatus(t *testing.T) {
	pipeline := &fakeVideoPipeline{err: &apperr.QuotaError{Reason: apperr.ReasonNoActiveSubscription}}
	router := videoRouter(pipeline)

	w := postJSON(t, router, "/generate/video", models.GenerateVideoRequest{
		ImageURL:    "https://cdn.test/1.png",
		Prompt:      "zoom",
		ProjectID:   uuid.New().String(),
		SceneNumber: 1,
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperr.ReasonNoActiveSubscription, resp.Error)
}
