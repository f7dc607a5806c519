package supabase_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoai-studio-backend/internal/supabase"
)

func TestPublishProjectEvent(t *testing.T) {
	projectID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/realtime/v1/api/broadcast", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		var body struct {
			Messages []struct {
				Topic   string                 `json:"topic"`
				Event   string                 `json:"event"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "project:"+projectID.String(), body.Messages[0].Topic)
		assert.Equal(t, "scene_image_ready", body.Messages[0].Event)
		assert.Equal(t, float64(2), body.Messages[0].Payload["scene_number"])

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := supabase.NewRealtimeClient(server.URL, "anon-key")
	err := client.PublishProjectEvent(projectID, "scene_image_ready",
		supabase.SceneImageReadyPayload(projectID, 2, "https://cdn.test/2.png"))

	assert.NoError(t, err)
}

func TestPublishEvent_UpstreamRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := supabase.NewRealtimeClient(server.URL, "anon-key")
	err := client.PublishEvent("project:x", "scene_image_ready", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
