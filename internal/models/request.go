package models

import "encoding/json"

type GenerateScriptRequest struct {
	Topic       string `json:"topic"`
	VisualStyle string `json:"visualStyle,omitempty"`
}

type CreateProjectRequest struct {
	Title       string  `json:"title"`
	Topic       string  `json:"topic"`
	VisualStyle string  `json:"visualStyle,omitempty"`
	Script      *Script `json:"script"`
}

type UpdateProjectRequest struct {
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`
	Script *Script `json:"script,omitempty"`
}

type GenerateImageRequest struct {
	Prompt      string `json:"prompt"`
	SceneTitle  string `json:"sceneTitle,omitempty"`
	NumImages   int    `json:"numImages,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
	VisualStyle string `json:"visualStyle,omitempty"`
	// When both are set the winning option is written into the project's
	// media map for that scene.
	ProjectID   string `json:"projectId,omitempty"`
	SceneNumber int    `json:"sceneNumber,omitempty"`
}

type GenerateVideoRequest struct {
	ImageURL    string `json:"imageUrl"`
	Prompt      string `json:"prompt"`
	ProjectID   string `json:"projectId"`
	SceneNumber int    `json:"sceneNumber"`
	// Raw JSON so a non-numeric duration can be dropped with a warning
	// instead of failing the whole request at bind time.
	VideoDuration   json.RawMessage `json:"videoDuration,omitempty"`
	PromptOptimizer *bool           `json:"promptOptimizer,omitempty"`
}

type GenerateVoiceRequest struct {
	Narration string `json:"narration"`
}
