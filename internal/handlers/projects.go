package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/logging"
	"videoai-studio-backend/internal/middleware"
	"videoai-studio-backend/internal/models"
	"videoai-studio-backend/internal/styles"
)

// ProjectStore is the persistence surface the project endpoints need.
type ProjectStore interface {
	CreateProject(userID uuid.UUID, title, topic, visualStyle string, script json.RawMessage) (*models.Project, error)
	GetProject(projectID, userID uuid.UUID) (*models.Project, error)
	GetProjectMeta(projectID, userID uuid.UUID) (*models.Project, error)
	ListProjects(userID uuid.UUID) ([]models.Project, error)
	UpdateProject(projectID, userID uuid.UUID, updates map[string]interface{}) error
	DeleteProject(projectID, userID uuid.UUID) error
}

// ProjectFileStore removes a project's stored media on deletion.
type ProjectFileStore interface {
	DeleteProjectFiles(userID, projectID uuid.UUID) error
}

type ProjectHandler struct {
	store ProjectStore
	files ProjectFileStore
}

func NewProjectHandler(store ProjectStore, files ProjectFileStore) *ProjectHandler {
	return &ProjectHandler{store: store, files: files}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, &apperr.AuthError{Message: "missing user identity"})
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		respondError(c, &apperr.ValidationError{Field: "topic", Message: "topic is required"})
		return
	}
	if req.Script == nil {
		respondError(c, &apperr.ValidationError{Field: "script", Message: "script is required"})
		return
	}
	req.Script.Normalize()
	if err := req.Script.Validate(); err != nil {
		respondError(c, &apperr.ValidationError{Field: "script", Message: err.Error()})
		return
	}
	if req.VisualStyle != "" && !styles.Known(req.VisualStyle) {
		respondError(c, &apperr.ValidationError{Field: "visualStyle", Message: "unknown visual style"})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.Script.Title
	}
	if title == "" {
		title = req.Topic
	}

	scriptJSON, err := json.Marshal(req.Script)
	if err != nil {
		respondError(c, err)
		return
	}

	project, err := h.store.CreateProject(userID, title, req.Topic, req.VisualStyle, scriptJSON)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := toProjectResponse(project, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProjectHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, &apperr.AuthError{Message: "missing user identity"})
		return
	}

	projects, err := h.store.ListProjects(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, models.ProjectSummary{
			ID:        p.ID.String(),
			Title:     p.Title,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: summaries})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	userID, projectID, ok := h.identify(c)
	if !ok {
		return
	}

	project, err := h.store.GetProject(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := toProjectResponse(project, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Status is the lightweight read used by clients polling a generation run.
func (h *ProjectHandler) Status(c *gin.Context) {
	userID, projectID, ok := h.identify(c)
	if !ok {
		return
	}

	project, err := h.store.GetProjectMeta(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := toProjectResponse(project, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	userID, projectID, ok := h.identify(c)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			respondError(c, &apperr.ValidationError{Field: "title", Message: "title must not be empty"})
			return
		}
		updates["title"] = *req.Title
	}
	if req.Status != nil {
		switch *req.Status {
		case models.ProjectStatusDraft, models.ProjectStatusGenerating,
			models.ProjectStatusCompleted, models.ProjectStatusFailed:
			updates["status"] = *req.Status
		default:
			respondError(c, &apperr.ValidationError{Field: "status", Message: "unknown project status"})
			return
		}
	}
	if req.Script != nil {
		req.Script.Normalize()
		if err := req.Script.Validate(); err != nil {
			respondError(c, &apperr.ValidationError{Field: "script", Message: err.Error()})
			return
		}
		scriptJSON, err := json.Marshal(req.Script)
		if err != nil {
			respondError(c, err)
			return
		}
		updates["script"] = scriptJSON
	}
	if len(updates) == 0 {
		respondError(c, &apperr.ValidationError{Message: "no updatable fields in request"})
		return
	}

	if err := h.store.UpdateProject(projectID, userID, updates); err != nil {
		respondError(c, err)
		return
	}

	project, err := h.store.GetProject(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := toProjectResponse(project, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, projectID, ok := h.identify(c)
	if !ok {
		return
	}

	if err := h.store.DeleteProject(projectID, userID); err != nil {
		respondError(c, err)
		return
	}

	// Storage cleanup is best effort: the row is gone, orphaned files only
	// cost storage space.
	if h.files != nil {
		if err := h.files.DeleteProjectFiles(userID, projectID); err != nil {
			logging.Log.WithFields(map[string]interface{}{
				"project_id": projectID.String(),
				"error":      err.Error(),
			}).Warn("failed to delete project files")
		}
	}

	c.Status(http.StatusNoContent)
}

func (h *ProjectHandler) identify(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, &apperr.AuthError{Message: "missing user identity"})
		return uuid.Nil, uuid.Nil, false
	}
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		respondError(c, &apperr.ValidationError{Field: "project_id", Message: "must be a valid UUID"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, projectID, true
}

// toProjectResponse converts a stored project row. full controls whether the
// script and media documents are included.
func toProjectResponse(p *models.Project, full bool) (*models.ProjectResponse, error) {
	resp := &models.ProjectResponse{
		ID:        p.ID.String(),
		Title:     p.Title,
		Topic:     p.Topic,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.VisualStyle.Valid {
		resp.VisualStyle = p.VisualStyle.String
	}
	if p.ErrorMessage.Valid {
		resp.ErrorMessage = p.ErrorMessage.String
	}
	if !full {
		return resp, nil
	}

	if len(p.Script) > 0 {
		var script models.Script
		if err := json.Unmarshal(p.Script, &script); err != nil {
			return nil, err
		}
		resp.Script = &script
	}
	media, err := p.ParseMedia()
	if err != nil {
		return nil, err
	}
	if len(media) > 0 {
		resp.Media = media
	}
	return resp, nil
}
