// Package llm is the gateway to the chat-completions provider that turns a
// topic into a structured narrated script.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/logging"
	"videoai-studio-backend/internal/models"
	"videoai-studio-backend/internal/styles"
)

const systemPrompt = `You are a professional video scriptwriter for short narrated videos. Given a topic, write a script split into scenes.

You MUST respond with ONLY a single valid JSON object - no preamble, no markdown, no explanation - with this exact shape:
{
  "title": "video title",
  "music": "short description of fitting background music",
  "scenes": [
    {
      "scene_number": 1,
      "title": "scene title",
      "visual_description": "what the viewer sees, written as an image generation prompt",
      "narration": "the exact words the narrator speaks for this scene"
    }
  ]
}

Rules:
- 4 to 8 scenes, scene_number starting at 1 and strictly increasing.
- narration: 1-3 spoken sentences per scene.
- visual_description: concrete and visual, no abstract wording.
- Write in the language of the topic.`

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: 0.7,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateScript asks the LLM for a script on topic, styled per styleID.
// The completion may wrap the JSON in prose or code fences; the first
// balanced object is extracted before parsing.
func (c *Client) GenerateScript(ctx context.Context, topic, styleID string) (*models.Script, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, &apperr.ValidationError{Field: "topic", Message: "topic is required"}
	}

	style := styles.Lookup(styleID)
	sys := systemPrompt + "\n- " + style.ScriptDirective

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: sys},
			{Role: "user", Content: fmt.Sprintf("Topic: %s\n\nRespond ONLY with the JSON object.", strings.TrimSpace(topic))},
		},
		Temperature: c.temperature,
		MaxTokens:   4096,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: "llm", Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &apperr.ProviderError{Provider: "llm", Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: "llm", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: "llm", Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.ProviderError{
			Provider:   "llm",
			HTTPStatus: resp.StatusCode,
			Message:    snippet(respBytes),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return nil, &apperr.ProviderError{Provider: "llm", Message: fmt.Sprintf("malformed completion payload: %v", err)}
	}
	if chatResp.Error != nil {
		return nil, &apperr.ProviderError{Provider: "llm", Message: chatResp.Error.Message}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &apperr.ProviderError{Provider: "llm", Message: "completion returned no choices"}
	}

	raw, ok := ExtractJSONObject(chatResp.Choices[0].Message.Content)
	if !ok {
		return nil, &apperr.ProviderError{Provider: "llm", Message: "no JSON object found in completion"}
	}

	var script models.Script
	if err := json.Unmarshal([]byte(raw), &script); err != nil {
		return nil, &apperr.ProviderError{Provider: "llm", Message: fmt.Sprintf("parse script JSON: %v", err)}
	}

	script.Normalize()
	if err := script.Validate(); err != nil {
		return nil, &apperr.ProviderError{Provider: "llm", Message: err.Error()}
	}

	logging.Log.WithFields(map[string]interface{}{
		"provider": "llm",
		"scenes":   len(script.Scenes),
	}).Info("script generated")

	return &script, nil
}

// ExtractJSONObject returns the first balanced {...} substring of s,
// skipping braces inside JSON strings. Completions are frequently wrapped in
// code fences or prose despite the JSON-only instruction.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func snippet(body []byte) string {
	const max = 300
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}
