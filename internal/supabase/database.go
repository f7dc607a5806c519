package supabase

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"videoai-studio-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

const projectColumns = `id, user_id, title, topic, visual_style, script, media, status, error_message, created_at, updated_at`

func (d *DatabaseClient) CreateProject(userID uuid.UUID, title, topic, visualStyle string, script json.RawMessage) (*models.Project, error) {
	var project models.Project
	err := d.db.QueryRow(`
		INSERT INTO projects (user_id, title, topic, visual_style, script, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING `+projectColumns+`
	`, userID, title, topic, visualStyle, script, models.ProjectStatusGenerating).Scan(
		&project.ID, &project.UserID, &project.Title, &project.Topic, &project.VisualStyle,
		&project.Script, &project.Media, &project.Status, &project.ErrorMessage,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return &project, nil
}

// GetProject is the full read, including the script and the media map.
func (d *DatabaseClient) GetProject(projectID, userID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID).Scan(
		&project.ID, &project.UserID, &project.Title, &project.Topic, &project.VisualStyle,
		&project.Script, &project.Media, &project.Status, &project.ErrorMessage,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// GetProjectMeta is the lightweight read: it excludes the script and the
// media map, which can be large.
func (d *DatabaseClient) GetProjectMeta(projectID, userID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := d.db.QueryRow(`
		SELECT id, user_id, title, topic, visual_style, status, error_message, created_at, updated_at
		FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID).Scan(
		&project.ID, &project.UserID, &project.Title, &project.Topic, &project.VisualStyle,
		&project.Status, &project.ErrorMessage, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

func (d *DatabaseClient) ListProjects(userID uuid.UUID) ([]models.Project, error) {
	rows, err := d.db.Query(`
		SELECT id, user_id, title, topic, visual_style, status, error_message, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID, &project.UserID, &project.Title, &project.Topic, &project.VisualStyle,
			&project.Status, &project.ErrorMessage, &project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// updatableColumns is the whitelist for partial project updates.
var updatableColumns = map[string]bool{
	"title":         true,
	"status":        true,
	"script":        true,
	"visual_style":  true,
	"error_message": true,
}

// UpdateProject applies a partial update of whitelisted columns.
func (d *DatabaseClient) UpdateProject(projectID, userID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates))
	for col := range updates {
		if !updatableColumns[col] {
			return fmt.Errorf("column %q is not updatable", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	set := ""
	args := []interface{}{projectID, userID}
	for i, col := range columns {
		if i > 0 {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", col, i+3)
		args = append(args, updates[col])
	}

	result, err := d.db.Exec(`
		UPDATE projects
		SET `+set+`, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MergeSceneMedia merges a patch into the media-map entry for one scene
// number in a single statement, so concurrent completions for different
// scenes never clobber each other and two writers for the same scene resolve
// last-write-wins. Returns the updated map.
func (d *DatabaseClient) MergeSceneMedia(projectID, userID uuid.UUID, sceneNumber int, patch map[string]interface{}) (json.RawMessage, error) {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal media patch: %w", err)
	}

	key := models.SceneKey(sceneNumber)
	var media json.RawMessage
	err = d.db.QueryRow(`
		UPDATE projects
		SET media = jsonb_set(
			COALESCE(media, '{}'::jsonb),
			ARRAY[$3::text],
			COALESCE(media -> ($3::text), '{}'::jsonb) || $4::jsonb,
			true
		), updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING media
	`, projectID, userID, key, patchJSON).Scan(&media)
	if err != nil {
		return nil, fmt.Errorf("failed to merge scene media: %w", err)
	}

	return media, nil
}

func (d *DatabaseClient) DeleteProject(projectID, userID uuid.UUID) error {
	result, err := d.db.Exec(`
		DELETE FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CheckVideoGenerationLimit is the quota gate's read side: a single database
// function call, consulted before every billable generation step.
func (d *DatabaseClient) CheckVideoGenerationLimit(userID uuid.UUID) (*models.QuotaCheck, error) {
	var check models.QuotaCheck
	err := d.db.QueryRow(`
		SELECT allowed, reason, videos_generated, videos_quota, plan_name, plan_display_name, current_period_end, cancel_at_period_end
		FROM check_video_generation_limit($1)
	`, userID).Scan(
		&check.Allowed, &check.Reason, &check.VideosGenerated, &check.VideosQuota,
		&check.PlanName, &check.PlanDisplayName, &check.CurrentPeriodEnd, &check.CancelAtPeriodEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check video generation limit: %w", err)
	}

	return &check, nil
}

// IncrementVideoGenerationCount is the quota gate's write side, called
// exactly once per successful billable operation.
func (d *DatabaseClient) IncrementVideoGenerationCount(userID uuid.UUID) (*models.QuotaIncrement, error) {
	var inc models.QuotaIncrement
	err := d.db.QueryRow(`
		SELECT success, new_count, videos_quota
		FROM increment_video_generation_count($1)
	`, userID).Scan(&inc.Success, &inc.NewCount, &inc.VideosQuota)
	if err != nil {
		return nil, fmt.Errorf("failed to increment video generation count: %w", err)
	}

	return &inc, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
