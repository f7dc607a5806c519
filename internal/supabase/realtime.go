package supabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RealtimeClient publishes broadcast events over the Supabase Realtime REST
// API. Subscribed clients receive them without holding a connection to this
// service.
type RealtimeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRealtimeClient(supabaseURL, apiKey string) *RealtimeClient {
	return &RealtimeClient{
		baseURL:    strings.TrimSuffix(supabaseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type broadcastMessage struct {
	Topic   string                 `json:"topic"`
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

type broadcastRequest struct {
	Messages []broadcastMessage `json:"messages"`
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	body, err := json.Marshal(broadcastRequest{
		Messages: []broadcastMessage{{Topic: channel, Event: event, Payload: payload}},
	})
	if err != nil {
		return fmt.Errorf("broadcast event: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.baseURL+"/realtime/v1/api/broadcast", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("broadcast event: %w", err)
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("broadcast event: status %d", resp.StatusCode)
	}
	return nil
}

func (r *RealtimeClient) PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%s", projectID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func SceneImageReadyPayload(projectID uuid.UUID, sceneNumber int, imageURL string) map[string]interface{} {
	return map[string]interface{}{
		"project_id":   projectID.String(),
		"scene_number": sceneNumber,
		"image_url":    imageURL,
	}
}

func SceneImageFailedPayload(projectID uuid.UUID, sceneNumber int, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"project_id":   projectID.String(),
		"scene_number": sceneNumber,
		"error":        errorMsg,
	}
}

func SceneVideoReadyPayload(projectID uuid.UUID, sceneNumber int, videoURL string) map[string]interface{} {
	return map[string]interface{}{
		"project_id":   projectID.String(),
		"scene_number": sceneNumber,
		"video_url":    videoURL,
	}
}
