package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoai-studio-backend/internal/models"
)

func TestScriptNormalize(t *testing.T) {
	t.Run("duplicates get fresh numbers", func(t *testing.T) {
		s := &models.Script{Scenes: []models.Scene{
			{SceneNumber: 1}, {SceneNumber: 1}, {SceneNumber: 2},
		}}
		s.Normalize()

		seen := map[int]bool{}
		for _, sc := range s.Scenes {
			assert.Positive(t, sc.SceneNumber)
			assert.False(t, seen[sc.SceneNumber])
			seen[sc.SceneNumber] = true
		}
		assert.Equal(t, 1, s.Scenes[0].SceneNumber, "first occurrence keeps its number")
		assert.Equal(t, 2, s.Scenes[2].SceneNumber, "unrelated scenes keep their numbers")
	})

	t.Run("zero and negative numbers assigned", func(t *testing.T) {
		s := &models.Script{Scenes: []models.Scene{
			{SceneNumber: 0}, {SceneNumber: -4}, {SceneNumber: 3},
		}}
		s.Normalize()
		require.NoError(t, s.Validate())
	})

	t.Run("valid script untouched", func(t *testing.T) {
		s := &models.Script{Scenes: []models.Scene{
			{SceneNumber: 2}, {SceneNumber: 5}, {SceneNumber: 1},
		}}
		s.Normalize()
		assert.Equal(t, 2, s.Scenes[0].SceneNumber)
		assert.Equal(t, 5, s.Scenes[1].SceneNumber)
		assert.Equal(t, 1, s.Scenes[2].SceneNumber)
	})
}

func TestScriptValidate(t *testing.T) {
	assert.Error(t, (&models.Script{}).Validate())
	assert.Error(t, (&models.Script{Scenes: []models.Scene{{SceneNumber: 0}}}).Validate())
	assert.Error(t, (&models.Script{Scenes: []models.Scene{{SceneNumber: 1}, {SceneNumber: 1}}}).Validate())
	assert.NoError(t, (&models.Script{Scenes: []models.Scene{{SceneNumber: 1}, {SceneNumber: 2}}}).Validate())
}

func TestScriptJSONRoundTrip(t *testing.T) {
	original := models.Script{
		Title: "L'histoire du Mur de Berlin",
		Music: "sombre piano",
		Scenes: []models.Scene{
			{SceneNumber: 1, Title: "1961", VisualDescription: "barbed wire at night", Narration: "Un mur divise une ville."},
			{SceneNumber: 2, Title: "1989", VisualDescription: "crowds on the wall", Narration: "Puis il tombe."},
		},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var parsed models.Script
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, original, parsed)
}

func TestSceneByNumber(t *testing.T) {
	s := &models.Script{Scenes: []models.Scene{
		{SceneNumber: 1, Title: "one"},
		{SceneNumber: 3, Title: "three"},
	}}

	scene, ok := s.SceneByNumber(3)
	require.True(t, ok)
	assert.Equal(t, "three", scene.Title)

	_, ok = s.SceneByNumber(2)
	assert.False(t, ok)
}

func TestProjectParseMedia(t *testing.T) {
	t.Run("absent column yields empty map", func(t *testing.T) {
		p := &models.Project{}
		media, err := p.ParseMedia()
		require.NoError(t, err)
		assert.NotNil(t, media)
		assert.Empty(t, media)
	})

	t.Run("round trip by scene key", func(t *testing.T) {
		raw, err := json.Marshal(models.MediaMap{
			models.SceneKey(2): {ImageURL: "https://cdn.test/2.png"},
		})
		require.NoError(t, err)

		p := &models.Project{Media: raw}
		media, err := p.ParseMedia()
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/2.png", media["2"].ImageURL)
	})
}
