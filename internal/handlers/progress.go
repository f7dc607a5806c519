package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/config"
	"videoai-studio-backend/internal/logging"
	"videoai-studio-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// progressEvent is one frame pushed to the client whenever the project
// changes.
type progressEvent struct {
	ProjectID    string          `json:"projectId"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Media        models.MediaMap `json:"media,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ProgressStore is the read surface the progress feed polls.
type ProgressStore interface {
	GetProject(projectID, userID uuid.UUID) (*models.Project, error)
}

type ProgressHandler struct {
	store ProgressStore
	cfg   *config.Config
}

func NewProgressHandler(store ProgressStore, cfg *config.Config) *ProgressHandler {
	return &ProgressHandler{store: store, cfg: cfg}
}

const (
	progressPollInterval = time.Second
	progressMaxDuration  = 5 * time.Minute
)

// Stream upgrades the connection and pushes project state whenever it
// changes, so clients track a generation run without hammering the status
// endpoint. Browsers cannot set headers on WebSocket requests, so the token
// rides in the query string.
func (h *ProgressHandler) Stream(c *gin.Context) {
	userID, err := h.authenticate(c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		respondError(c, &apperr.ValidationError{Field: "project_id", Message: "must be a valid UUID"})
		return
	}

	// Verify access before upgrading so an unauthorized caller gets a plain
	// HTTP error instead of a dropped socket.
	project, err := h.store.GetProject(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Log.WithField("error", err.Error()).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := h.push(conn, project); err != nil {
		return
	}
	lastUpdated := project.UpdatedAt
	if isTerminalStatus(project.Status) {
		return
	}

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()
	deadline := time.After(progressMaxDuration)

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
			project, err := h.store.GetProject(projectID, userID)
			if err != nil {
				logging.Log.WithFields(map[string]interface{}{
					"project_id": projectID.String(),
					"error":      err.Error(),
				}).Warn("progress poll failed")
				return
			}
			if !project.UpdatedAt.After(lastUpdated) {
				continue
			}
			lastUpdated = project.UpdatedAt
			if err := h.push(conn, project); err != nil {
				return
			}
			if isTerminalStatus(project.Status) {
				return
			}
		}
	}
}

func (h *ProgressHandler) push(conn *websocket.Conn, project *models.Project) error {
	media, err := project.ParseMedia()
	if err != nil {
		return err
	}
	event := progressEvent{
		ProjectID: project.ID.String(),
		Status:    project.Status,
		Media:     media,
		UpdatedAt: project.UpdatedAt,
	}
	if project.ErrorMessage.Valid {
		event.ErrorMessage = project.ErrorMessage.String
	}
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(event)
}

func (h *ProgressHandler) authenticate(tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, &apperr.AuthError{Message: "missing token"}
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.cfg.SupabaseJWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return uuid.Nil, &apperr.AuthError{Message: "invalid token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, &apperr.AuthError{Message: "invalid token claims"}
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, &apperr.AuthError{Message: "missing user id in token"}
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, &apperr.AuthError{Message: "malformed user id in token"}
	}
	return userID, nil
}

func isTerminalStatus(status string) bool {
	return status == models.ProjectStatusCompleted || status == models.ProjectStatusFailed
}
