package services_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/imagegen"
	"videoai-studio-backend/internal/models"
	"videoai-studio-backend/internal/provider"
	"videoai-studio-backend/internal/services"
	"videoai-studio-backend/internal/videogen"
)

type fakeStore struct {
	mu             sync.Mutex
	project        *models.Project
	merges         map[string][]map[string]interface{}
	check          *models.QuotaCheck
	incrementCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{merges: make(map[string][]map[string]interface{})}
}

func (f *fakeStore) GetProject(projectID, userID uuid.UUID) (*models.Project, error) {
	if f.project == nil {
		return nil, fmt.Errorf("no project configured")
	}
	return f.project, nil
}

func (f *fakeStore) MergeSceneMedia(projectID, userID uuid.UUID, sceneNumber int, patch map[string]interface{}) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.SceneKey(sceneNumber)
	f.merges[key] = append(f.merges[key], patch)
	return json.RawMessage(`{}`), nil
}

func (f *fakeStore) CheckVideoGenerationLimit(userID uuid.UUID) (*models.QuotaCheck, error) {
	return f.check, nil
}

func (f *fakeStore) IncrementVideoGenerationCount(userID uuid.UUID) (*models.QuotaIncrement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrementCalls++
	return &models.QuotaIncrement{Success: true, NewCount: f.check.VideosGenerated + 1, VideosQuota: f.check.VideosQuota}, nil
}

func (f *fakeStore) lastPatch(sceneNumber int) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	patches := f.merges[models.SceneKey(sceneNumber)]
	if len(patches) == 0 {
		return nil
	}
	return patches[len(patches)-1]
}

type fakeImageGateway struct {
	mu      sync.Mutex
	submits []imagegen.SubmitRequest
}

func (f *fakeImageGateway) Submit(ctx context.Context, req imagegen.SubmitRequest) (provider.JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(req.Prompt, "always fails") {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "imagegen", Message: "moderation rejected"}
	}
	f.submits = append(f.submits, req)
	return provider.JobHandle{RequestID: req.Prompt, StatusURL: "s", ResponseURL: "r"}, nil
}

func (f *fakeImageGateway) Await(ctx context.Context, handle provider.JobHandle) ([]byte, error) {
	return []byte(fmt.Sprintf(`{"images":[{"url":"https://cdn.test/%d.png"}]}`, len(handle.RequestID))), nil
}

type fakeVideoGateway struct {
	mu      sync.Mutex
	submits []videogen.SubmitRequest
}

func (f *fakeVideoGateway) Submit(ctx context.Context, req videogen.SubmitRequest) (provider.JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, req)
	return provider.JobHandle{RequestID: "vid-1", StatusURL: "s", ResponseURL: "r"}, nil
}

func (f *fakeVideoGateway) Await(ctx context.Context, handle provider.JobHandle) ([]byte, error) {
	payload := base64.StdEncoding.EncodeToString([]byte("clip bytes"))
	return []byte(fmt.Sprintf(`{"video_base64":%q}`, payload)), nil
}

type fakeStorage struct {
	mu        sync.Mutex
	filenames []string
}

func (f *fakeStorage) UploadMedia(userID, projectID uuid.UUID, filename string, data []byte, contentType string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filenames = append(f.filenames, filename)
	return "users/x/" + filename, "https://storage.test/" + filename, nil
}

func TestGenerateVideo_QuotaExceeded(t *testing.T) {
	store := newFakeStore()
	store.check = &models.QuotaCheck{
		Allowed:         false,
		Reason:          apperr.ReasonQuotaExceeded,
		VideosGenerated: 10,
		VideosQuota:     10,
	}
	videos := &fakeVideoGateway{}
	pipeline := services.NewPipeline(&fakeImageGateway{}, videos, store, &fakeStorage{}, nil)

	_, err := pipeline.GenerateVideo(context.Background(), uuid.New(), models.GenerateVideoRequest{
		ImageURL:    "https://cdn.test/1.png",
		Prompt:      "slow zoom",
		ProjectID:   uuid.New().String(),
		SceneNumber: 1,
	})

	var qErr *apperr.QuotaError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, apperr.ReasonQuotaExceeded, qErr.Reason)
	assert.Equal(t, 429, apperr.StatusCode(err))
	assert.Empty(t, videos.submits, "quota denial must precede any provider call")
	assert.Zero(t, store.incrementCalls)
}

func TestGenerateVideo_NoSubscription(t *testing.T) {
	store := newFakeStore()
	store.check = &models.QuotaCheck{Allowed: false, Reason: apperr.ReasonNoActiveSubscription}
	pipeline := services.NewPipeline(&fakeImageGateway{}, &fakeVideoGateway{}, store, &fakeStorage{}, nil)

	_, err := pipeline.GenerateVideo(context.Background(), uuid.New(), models.GenerateVideoRequest{
		ImageURL:    "https://cdn.test/1.png",
		Prompt:      "pan left",
		ProjectID:   uuid.New().String(),
		SceneNumber: 1,
	})

	assert.Equal(t, 403, apperr.StatusCode(err))
	assert.Equal(t, apperr.ReasonNoActiveSubscription, apperr.Code(err))
}

func TestGenerateVideo_Success(t *testing.T) {
	store := newFakeStore()
	store.check = &models.QuotaCheck{Allowed: true, Reason: "ok", VideosGenerated: 2, VideosQuota: 10}
	videos := &fakeVideoGateway{}
	storage := &fakeStorage{}
	pipeline := services.NewPipeline(&fakeImageGateway{}, videos, store, storage, nil)

	resp, err := pipeline.GenerateVideo(context.Background(), uuid.New(), models.GenerateVideoRequest{
		ImageURL:      "https://cdn.test/scene1.png",
		Prompt:        "slow zoom in",
		ProjectID:     uuid.New().String(),
		SceneNumber:   1,
		VideoDuration: json.RawMessage(`7`),
	})

	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 3, resp.VideosGenerated)
	assert.Equal(t, 10, resp.VideosQuota)
	assert.True(t, strings.HasPrefix(resp.VideoURL, "https://storage.test/scene_1_"))

	require.Len(t, videos.submits, 1)
	assert.Equal(t, "https://cdn.test/scene1.png", videos.submits[0].ImageURL)
	require.NotNil(t, videos.submits[0].Duration)
	assert.Equal(t, 7, *videos.submits[0].Duration)

	require.Len(t, storage.filenames, 1)
	assert.True(t, strings.HasSuffix(storage.filenames[0], ".mp4"))

	patch := store.lastPatch(1)
	require.NotNil(t, patch)
	assert.Equal(t, resp.VideoURL, patch["videoUrl"])
	assert.Equal(t, false, patch["videoFailed"])
	assert.Equal(t, 1, store.incrementCalls)
}

func TestGenerateVideo_ImageFromStoredMedia(t *testing.T) {
	media, _ := json.Marshal(models.MediaMap{
		models.SceneKey(2): {ImageURL: "https://cdn.test/stored2.png"},
	})
	store := newFakeStore()
	store.check = &models.QuotaCheck{Allowed: true, Reason: "ok", VideosQuota: 5}
	store.project = &models.Project{ID: uuid.New(), Media: media}
	videos := &fakeVideoGateway{}
	pipeline := services.NewPipeline(&fakeImageGateway{}, videos, store, &fakeStorage{}, nil)

	_, err := pipeline.GenerateVideo(context.Background(), uuid.New(), models.GenerateVideoRequest{
		Prompt:      "drift",
		ProjectID:   uuid.New().String(),
		SceneNumber: 2,
	})

	require.NoError(t, err)
	require.Len(t, videos.submits, 1)
	assert.Equal(t, "https://cdn.test/stored2.png", videos.submits[0].ImageURL)
}

func TestGenerateVideo_SceneWithoutImage(t *testing.T) {
	store := newFakeStore()
	store.check = &models.QuotaCheck{Allowed: true, Reason: "ok"}
	store.project = &models.Project{ID: uuid.New()}
	pipeline := services.NewPipeline(&fakeImageGateway{}, &fakeVideoGateway{}, store, &fakeStorage{}, nil)

	_, err := pipeline.GenerateVideo(context.Background(), uuid.New(), models.GenerateVideoRequest{
		Prompt:      "drift",
		ProjectID:   uuid.New().String(),
		SceneNumber: 4,
	})

	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sceneNumber", vErr.Field)
}

func projectWithScript(t *testing.T, scenes ...models.Scene) *models.Project {
	t.Helper()
	raw, err := json.Marshal(models.Script{Title: "t", Scenes: scenes})
	require.NoError(t, err)
	return &models.Project{ID: uuid.New(), Script: raw}
}

func TestGenerateAllImages_AllScenesSucceed(t *testing.T) {
	store := newFakeStore()
	store.project = projectWithScript(t,
		models.Scene{SceneNumber: 1, Title: "a", VisualDescription: "a foggy pier"},
		models.Scene{SceneNumber: 2, Title: "b", VisualDescription: "city at night"},
	)
	images := &fakeImageGateway{}
	pipeline := services.NewPipeline(images, &fakeVideoGateway{}, store, &fakeStorage{}, nil)

	resp, err := pipeline.GenerateAllImages(context.Background(), uuid.New(), store.project.ID)

	require.NoError(t, err)
	require.Len(t, resp.Scenes, 2)
	for _, scene := range resp.Scenes {
		assert.False(t, scene.Failed)
		assert.NotEmpty(t, scene.ImageURL)
	}
	assert.NotNil(t, store.lastPatch(1))
	assert.NotNil(t, store.lastPatch(2))
	assert.Equal(t, false, store.lastPatch(1)["imageFailed"])
}

func TestGenerateAllImages_PartialFailure(t *testing.T) {
	store := newFakeStore()
	store.project = projectWithScript(t,
		models.Scene{SceneNumber: 1, Title: "a", VisualDescription: "a foggy pier"},
		models.Scene{SceneNumber: 2, Title: "b", VisualDescription: "this one always fails"},
	)
	pipeline := services.NewPipeline(&fakeImageGateway{}, &fakeVideoGateway{}, store, &fakeStorage{}, nil)

	resp, err := pipeline.GenerateAllImages(context.Background(), uuid.New(), store.project.ID)

	require.NoError(t, err, "one scene failing must not fail the batch")
	require.Len(t, resp.Scenes, 2)

	byScene := map[int]models.SceneImageStatus{}
	for _, s := range resp.Scenes {
		byScene[s.SceneNumber] = s
	}
	assert.False(t, byScene[1].Failed)
	assert.NotEmpty(t, byScene[1].ImageURL)
	assert.True(t, byScene[2].Failed)
	assert.Contains(t, byScene[2].Error, "moderation rejected")

	patch := store.lastPatch(2)
	require.NotNil(t, patch)
	assert.Equal(t, true, patch["imageFailed"])
}

func TestGenerateAllImages_NoScript(t *testing.T) {
	store := newFakeStore()
	store.project = &models.Project{ID: uuid.New()}
	pipeline := services.NewPipeline(&fakeImageGateway{}, &fakeVideoGateway{}, store, &fakeStorage{}, nil)

	_, err := pipeline.GenerateAllImages(context.Background(), uuid.New(), store.project.ID)

	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "script", vErr.Field)
}
