// Package services holds the generation pipeline: the orchestration layer
// between the HTTP handlers, the provider gateways, and persistence.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/imagegen"
	"videoai-studio-backend/internal/logging"
	"videoai-studio-backend/internal/models"
	"videoai-studio-backend/internal/provider"
	"videoai-studio-backend/internal/styles"
	"videoai-studio-backend/internal/supabase"
	"videoai-studio-backend/internal/videogen"
)

// ImageGateway submits image jobs and awaits their results.
type ImageGateway interface {
	Submit(ctx context.Context, req imagegen.SubmitRequest) (provider.JobHandle, error)
	Await(ctx context.Context, handle provider.JobHandle) ([]byte, error)
}

// VideoGateway submits video jobs and awaits their results.
type VideoGateway interface {
	Submit(ctx context.Context, req videogen.SubmitRequest) (provider.JobHandle, error)
	Await(ctx context.Context, handle provider.JobHandle) ([]byte, error)
}

// ProjectStore is the persistence surface the pipeline needs.
type ProjectStore interface {
	GetProject(projectID, userID uuid.UUID) (*models.Project, error)
	MergeSceneMedia(projectID, userID uuid.UUID, sceneNumber int, patch map[string]interface{}) (json.RawMessage, error)
	CheckVideoGenerationLimit(userID uuid.UUID) (*models.QuotaCheck, error)
	IncrementVideoGenerationCount(userID uuid.UUID) (*models.QuotaIncrement, error)
}

// MediaStorage uploads generated media and returns the public URL.
type MediaStorage interface {
	UploadMedia(userID, projectID uuid.UUID, filename string, data []byte, contentType string) (string, string, error)
}

type Pipeline struct {
	images     ImageGateway
	videos     VideoGateway
	store      ProjectStore
	storage    MediaStorage
	realtime   *supabase.RealtimeClient
	httpClient *http.Client
}

func NewPipeline(images ImageGateway, videos VideoGateway, store ProjectStore, storage MediaStorage, realtime *supabase.RealtimeClient) *Pipeline {
	return &Pipeline{
		images:     images,
		videos:     videos,
		store:      store,
		storage:    storage,
		realtime:   realtime,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// GenerateImage runs one image job to completion and returns the candidate
// URLs. If projectID is set, the first URL is also persisted into that
// scene's media entry.
func (p *Pipeline) GenerateImage(ctx context.Context, userID uuid.UUID, req models.GenerateImageRequest) (*models.GenerateImageResponse, error) {
	prompt := req.Prompt
	if req.VisualStyle != "" {
		prompt = styles.Lookup(req.VisualStyle).ApplyImageModifier(prompt)
	}

	handle, err := p.images.Submit(ctx, imagegen.SubmitRequest{
		Prompt:     prompt,
		SceneTitle: req.SceneTitle,
		NumImages:  req.NumImages,
		ImageSize:  req.ImageSize,
	})
	if err != nil {
		return nil, err
	}

	body, err := p.images.Await(ctx, handle)
	if err != nil {
		return nil, err
	}

	urls, err := imagegen.ParseResult(body)
	if err != nil {
		return nil, err
	}

	resp := &models.GenerateImageResponse{
		Options:  urls,
		Prompt:   prompt,
		RecordID: handle.RequestID,
	}

	if req.ProjectID != "" {
		projectID, err := uuid.Parse(req.ProjectID)
		if err != nil {
			return nil, &apperr.ValidationError{Field: "projectId", Message: "must be a valid UUID"}
		}
		if err := p.persistSceneImage(projectID, userID, req.SceneNumber, urls[0], prompt); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// GenerateAllImages fans out one image job per scene of the project's
// script and persists each result as soon as it lands. A scene failure is
// recorded in its media entry and never aborts the other scenes.
func (p *Pipeline) GenerateAllImages(ctx context.Context, userID, projectID uuid.UUID) (*models.GenerateAllImagesResponse, error) {
	project, err := p.store.GetProject(projectID, userID)
	if err != nil {
		return nil, err
	}

	script, err := project.ParseScript()
	if err != nil {
		return nil, &apperr.ValidationError{Field: "script", Message: "project has no usable script"}
	}
	if len(script.Scenes) == 0 {
		return nil, &apperr.ValidationError{Field: "script", Message: "script has no scenes"}
	}

	styleID := ""
	if project.VisualStyle.Valid {
		styleID = project.VisualStyle.String
	}

	results := make([]models.SceneImageStatus, len(script.Scenes))
	var wg sync.WaitGroup
	for i, scene := range script.Scenes {
		wg.Add(1)
		go func(i int, scene models.Scene) {
			defer wg.Done()
			status := models.SceneImageStatus{SceneNumber: scene.SceneNumber}

			url, genErr := p.generateSceneImage(ctx, userID, projectID, scene, styleID)
			if genErr != nil {
				status.Failed = true
				status.Error = genErr.Error()
				logging.Log.WithFields(map[string]interface{}{
					"project_id":   projectID.String(),
					"scene_number": scene.SceneNumber,
					"error":        genErr.Error(),
				}).Error("scene image generation failed")
			} else {
				status.ImageURL = url
			}
			results[i] = status
		}(i, scene)
	}
	wg.Wait()

	return &models.GenerateAllImagesResponse{
		ProjectID: projectID.String(),
		Scenes:    results,
	}, nil
}

func (p *Pipeline) generateSceneImage(ctx context.Context, userID, projectID uuid.UUID, scene models.Scene, styleID string) (string, error) {
	prompt := scene.VisualDescription
	if styleID != "" {
		prompt = styles.Lookup(styleID).ApplyImageModifier(prompt)
	}

	handle, err := p.images.Submit(ctx, imagegen.SubmitRequest{
		Prompt:     prompt,
		SceneTitle: scene.Title,
		NumImages:  1,
	})
	if err != nil {
		p.persistSceneImageFailure(projectID, userID, scene.SceneNumber, err)
		return "", err
	}

	body, err := p.images.Await(ctx, handle)
	if err != nil {
		p.persistSceneImageFailure(projectID, userID, scene.SceneNumber, err)
		return "", err
	}

	urls, err := imagegen.ParseResult(body)
	if err != nil {
		p.persistSceneImageFailure(projectID, userID, scene.SceneNumber, err)
		return "", err
	}

	if err := p.persistSceneImage(projectID, userID, scene.SceneNumber, urls[0], prompt); err != nil {
		return "", err
	}
	return urls[0], nil
}

func (p *Pipeline) persistSceneImage(projectID, userID uuid.UUID, sceneNumber int, imageURL, prompt string) error {
	_, err := p.store.MergeSceneMedia(projectID, userID, sceneNumber, map[string]interface{}{
		"imageUrl":    imageURL,
		"imagePrompt": prompt,
		"imageFailed": false,
		"imageError":  "",
		"updatedAt":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	p.publish(projectID, "scene_image_ready", supabase.SceneImageReadyPayload(projectID, sceneNumber, imageURL))
	return nil
}

// publish pushes a broadcast event; delivery is best effort and never fails
// the generation step.
func (p *Pipeline) publish(projectID uuid.UUID, event string, payload map[string]interface{}) {
	if p.realtime == nil {
		return
	}
	if err := p.realtime.PublishProjectEvent(projectID, event, payload); err != nil {
		logging.Log.WithFields(map[string]interface{}{
			"project_id": projectID.String(),
			"event":      event,
			"error":      err.Error(),
		}).Warn("failed to publish realtime event")
	}
}

func (p *Pipeline) persistSceneImageFailure(projectID, userID uuid.UUID, sceneNumber int, genErr error) {
	_, err := p.store.MergeSceneMedia(projectID, userID, sceneNumber, map[string]interface{}{
		"imageFailed": true,
		"imageError":  genErr.Error(),
		"updatedAt":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logging.Log.WithFields(map[string]interface{}{
			"project_id":   projectID.String(),
			"scene_number": sceneNumber,
			"error":        err.Error(),
		}).Error("failed to record scene image failure")
		return
	}
	p.publish(projectID, "scene_image_failed", supabase.SceneImageFailedPayload(projectID, sceneNumber, genErr.Error()))
}

// GenerateVideo animates one scene image into a video clip. The quota gate
// is consulted before any provider work and the counter is incremented only
// after the clip is stored.
func (p *Pipeline) GenerateVideo(ctx context.Context, userID uuid.UUID, req models.GenerateVideoRequest) (*models.GenerateVideoResponse, error) {
	check, err := p.store.CheckVideoGenerationLimit(userID)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		qe := &apperr.QuotaError{
			Reason: check.Reason,
			Used:   check.VideosGenerated,
			Quota:  check.VideosQuota,
		}
		if check.PlanName.Valid {
			qe.PlanName = check.PlanName.String
		}
		return nil, qe
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, &apperr.ValidationError{Field: "projectId", Message: "must be a valid UUID"}
	}

	imageURL := req.ImageURL
	if imageURL == "" {
		project, err := p.store.GetProject(projectID, userID)
		if err != nil {
			return nil, err
		}
		media, err := project.ParseMedia()
		if err != nil {
			return nil, err
		}
		entry, ok := media[models.SceneKey(req.SceneNumber)]
		if !ok || entry.ImageURL == "" {
			return nil, &apperr.ValidationError{Field: "sceneNumber", Message: "scene has no generated image to animate"}
		}
		imageURL = entry.ImageURL
	}

	handle, err := p.videos.Submit(ctx, videogen.SubmitRequest{
		ImageURL:        imageURL,
		Prompt:          req.Prompt,
		Duration:        videogen.ParseDuration(req.VideoDuration),
		PromptOptimizer: req.PromptOptimizer,
	})
	if err != nil {
		p.recordVideoFailure(projectID, userID, req.SceneNumber, req.Prompt, err)
		return nil, err
	}

	body, err := p.videos.Await(ctx, handle)
	if err != nil {
		p.recordVideoFailure(projectID, userID, req.SceneNumber, req.Prompt, err)
		return nil, err
	}

	ref, err := videogen.ParseResult(body)
	if err != nil {
		p.recordVideoFailure(projectID, userID, req.SceneNumber, req.Prompt, err)
		return nil, err
	}

	data, contentType, err := ref.Resolve(ctx, p.httpClient, "video/mp4")
	if err != nil {
		p.recordVideoFailure(projectID, userID, req.SceneNumber, req.Prompt, err)
		return nil, err
	}

	filename := fmt.Sprintf("scene_%d_%s.mp4", req.SceneNumber, uuid.New().String())
	_, publicURL, err := p.storage.UploadMedia(userID, projectID, filename, data, contentType)
	if err != nil {
		p.recordVideoFailure(projectID, userID, req.SceneNumber, req.Prompt, err)
		return nil, err
	}

	if _, err := p.store.MergeSceneMedia(projectID, userID, req.SceneNumber, map[string]interface{}{
		"videoUrl":    publicURL,
		"videoPrompt": req.Prompt,
		"videoFailed": false,
		"videoError":  "",
		"updatedAt":   time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	inc, err := p.store.IncrementVideoGenerationCount(userID)
	if err != nil {
		// The clip is already stored and persisted; a failed increment is
		// logged but never surfaced as a generation failure.
		logging.Log.WithFields(map[string]interface{}{
			"user_id": userID.String(),
			"error":   err.Error(),
		}).Error("failed to increment video generation count")
		inc = &models.QuotaIncrement{NewCount: check.VideosGenerated + 1, VideosQuota: check.VideosQuota}
	}

	p.publish(projectID, "scene_video_ready", supabase.SceneVideoReadyPayload(projectID, req.SceneNumber, publicURL))

	return &models.GenerateVideoResponse{
		Status:          "completed",
		VideoURL:        publicURL,
		VideosGenerated: inc.NewCount,
		VideosQuota:     inc.VideosQuota,
	}, nil
}

func (p *Pipeline) recordVideoFailure(projectID, userID uuid.UUID, sceneNumber int, prompt string, genErr error) {
	_, err := p.store.MergeSceneMedia(projectID, userID, sceneNumber, map[string]interface{}{
		"videoPrompt": prompt,
		"videoFailed": true,
		"videoError":  genErr.Error(),
		"updatedAt":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logging.Log.WithFields(map[string]interface{}{
			"project_id":   projectID.String(),
			"scene_number": sceneNumber,
			"error":        err.Error(),
		}).Error("failed to record scene video failure")
	}
}
