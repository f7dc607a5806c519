package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/llm"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"title":"x"}`,
			want:  `{"title":"x"}`,
			ok:    true,
		},
		{
			name:  "code fence",
			input: "```json\n{\"title\":\"x\"}\n```",
			want:  `{"title":"x"}`,
			ok:    true,
		},
		{
			name:  "prose around object",
			input: `Here is your script: {"title":"x","scenes":[]} Hope you like it!`,
			want:  `{"title":"x","scenes":[]}`,
			ok:    true,
		},
		{
			name:  "braces inside strings",
			input: `{"title":"a } tricky { one","music":"quiet"}`,
			want:  `{"title":"a } tricky { one","music":"quiet"}`,
			ok:    true,
		},
		{
			name:  "escaped quote inside string",
			input: `{"title":"she said \"}\"","music":"x"}`,
			want:  `{"title":"she said \"}\"","music":"x"}`,
			ok:    true,
		},
		{
			name:  "no object",
			input: "sorry, I cannot do that",
			ok:    false,
		},
		{
			name:  "unbalanced",
			input: `{"title":"x"`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := llm.ExtractJSONObject(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGenerateScript_EmptyTopic(t *testing.T) {
	client := llm.NewClient("https://llm.test", "key", "model-x")
	_, err := client.GenerateScript(context.Background(), "   ", "")

	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "topic", vErr.Field)
}

func TestGenerateScript_FencedCompletion(t *testing.T) {
	scriptJSON := `{"title":"Ocean Depths","music":"ambient","scenes":[` +
		`{"scene_number":1,"title":"Surface","visual_description":"waves at dawn","narration":"The ocean."},` +
		`{"scene_number":2,"title":"Deep","visual_description":"dark water","narration":"It goes deep."}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "model-x", req["model"])

		content := "```json\n" + scriptJSON + "\n```"
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "key", "model-x")
	script, err := client.GenerateScript(context.Background(), "the ocean", "cinematic")

	require.NoError(t, err)
	assert.Equal(t, "Ocean Depths", script.Title)
	require.Len(t, script.Scenes, 2)
	assert.Equal(t, 1, script.Scenes[0].SceneNumber)
	assert.Equal(t, 2, script.Scenes[1].SceneNumber)
}

func TestGenerateScript_DuplicateSceneNumbersNormalized(t *testing.T) {
	scriptJSON := `{"title":"T","music":"m","scenes":[` +
		`{"scene_number":1,"title":"a","visual_description":"v","narration":"n"},` +
		`{"scene_number":1,"title":"b","visual_description":"v","narration":"n"}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, scriptJSON)
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "key", "model-x")
	script, err := client.GenerateScript(context.Background(), "anything", "")

	require.NoError(t, err)
	numbers := map[int]bool{}
	for _, sc := range script.Scenes {
		assert.False(t, numbers[sc.SceneNumber], "scene numbers must be unique")
		numbers[sc.SceneNumber] = true
	}
}

func TestGenerateScript_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "key", "model-x")
	_, err := client.GenerateScript(context.Background(), "topic", "")

	var pErr *apperr.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, http.StatusTooManyRequests, pErr.HTTPStatus)
	assert.Equal(t, http.StatusTooManyRequests, apperr.StatusCode(err))
	assert.Equal(t, "rate_limited", apperr.Code(err))
}

func TestGenerateScript_NoJSONInCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"I am unable to help with that."}}]}`))
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "key", "model-x")
	_, err := client.GenerateScript(context.Background(), "topic", "")

	var pErr *apperr.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Contains(t, pErr.Message, "no JSON object")
}
