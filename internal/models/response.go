package models

import "time"

// ErrorResponse is the shape of every error body: a machine-discriminable
// code plus a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type GenerateScriptResponse struct {
	Script *Script `json:"script"`
}

type ProjectResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Topic        string    `json:"topic"`
	VisualStyle  string    `json:"visualStyle,omitempty"`
	Status       string    `json:"status"`
	Script       *Script   `json:"script,omitempty"`
	Media        MediaMap  `json:"media,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ProjectSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type GenerateImageResponse struct {
	Options  []string `json:"options"`
	Prompt   string   `json:"prompt"`
	RecordID string   `json:"recordId"`
}

// SceneImageStatus reports one scene's outcome of an image fan-out.
type SceneImageStatus struct {
	SceneNumber int    `json:"sceneNumber"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Failed      bool   `json:"failed,omitempty"`
	Error       string `json:"error,omitempty"`
}

type GenerateAllImagesResponse struct {
	ProjectID string             `json:"projectId"`
	Scenes    []SceneImageStatus `json:"scenes"`
}

type GenerateVideoResponse struct {
	Status          string `json:"status"`
	VideoURL        string `json:"videoUrl"`
	VideosGenerated int    `json:"videosGenerated"`
	VideosQuota     int    `json:"videosQuota"`
}

type GenerateVoiceResponse struct {
	AudioBase64 string `json:"audioBase64"`
	ContentType string `json:"contentType"`
}

type SubscriptionResponse struct {
	HasAccess         bool       `json:"hasAccess"`
	Reason            string     `json:"reason"`
	VideosGenerated   int        `json:"videosGenerated"`
	VideosQuota       int        `json:"videosQuota"`
	PlanName          string     `json:"planName,omitempty"`
	PlanDisplayName   string     `json:"planDisplayName,omitempty"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
