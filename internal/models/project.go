package models

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	ProjectStatusDraft      = "draft"
	ProjectStatusGenerating = "generating"
	ProjectStatusCompleted  = "completed"
	ProjectStatusFailed     = "failed"
)

type Project struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Title        string
	Topic        string
	VisualStyle  sql.NullString
	Script       json.RawMessage
	Media        json.RawMessage
	Status       string
	ErrorMessage sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SceneMedia is one entry of the project's media map: the generated image
// and/or video for a single scene. Failed attempts leave a marker so the
// client can offer a per-scene retry without blocking sibling scenes.
type SceneMedia struct {
	ImageURL    string    `json:"imageUrl,omitempty"`
	ImagePrompt string    `json:"imagePrompt,omitempty"`
	ImageFailed bool      `json:"imageFailed,omitempty"`
	ImageError  string    `json:"imageError,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	VideoPrompt string    `json:"videoPrompt,omitempty"`
	VideoFailed bool      `json:"videoFailed,omitempty"`
	VideoError  string    `json:"videoError,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MediaMap is keyed by decimal scene number. Entries are replaced per scene,
// never appended, so regeneration is last-write-wins on the scene key.
type MediaMap map[string]SceneMedia

// SceneKey is the media-map key for a scene number.
func SceneKey(n int) string {
	return strconv.Itoa(n)
}

// ParseScript decodes the project's stored script document.
func (p *Project) ParseScript() (*Script, error) {
	if len(p.Script) == 0 {
		return nil, sql.ErrNoRows
	}
	var s Script
	if err := json.Unmarshal(p.Script, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseMedia decodes the project's media map; an absent column yields an
// empty map, never nil.
func (p *Project) ParseMedia() (MediaMap, error) {
	m := make(MediaMap)
	if len(p.Media) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(p.Media, &m); err != nil {
		return nil, err
	}
	return m, nil
}
