package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// LLM gateway (OpenAI-compatible chat completions)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Image generation queue
	ImageAPIKey  string
	ImageBaseURL string

	// Video generation queue
	VideoAPIKey  string
	VideoBaseURL string

	// Text-to-speech
	VoiceAPIKey  string
	VoiceBaseURL string
	VoiceID      string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Poll loop tuning
	ImagePollInterval time.Duration
	ImagePollTimeout  time.Duration
	VideoPollInterval time.Duration
	VideoPollTimeout  time.Duration

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMBaseURL: getEnv("LLM_API_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:   getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),

		ImageAPIKey:  getEnv("IMAGE_API_KEY", ""),
		ImageBaseURL: getEnv("IMAGE_API_BASE_URL", "https://queue.fal.run/fal-ai/flux/schnell"),

		VideoAPIKey:  getEnv("VIDEO_API_KEY", ""),
		VideoBaseURL: getEnv("VIDEO_API_BASE_URL", "https://api.minimax.io/v1"),

		VoiceAPIKey:  getEnv("VOICE_API_KEY", ""),
		VoiceBaseURL: getEnv("VOICE_API_BASE_URL", "https://api.elevenlabs.io/v1"),
		VoiceID:      getEnv("VOICE_ID", "EXAVITQu4vr4xnSDxMaL"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "generated-media"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		ImagePollInterval: getDurationMS("IMAGE_POLL_INTERVAL_MS", 2000),
		ImagePollTimeout:  getDurationMS("IMAGE_POLL_TIMEOUT_MS", 4*60*1000),
		VideoPollInterval: getDurationMS("VIDEO_POLL_INTERVAL_MS", 5000),
		VideoPollTimeout:  getDurationMS("VIDEO_POLL_TIMEOUT_MS", 5*60*1000),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate enforces that every provider key is present up front. A missing
// key is a startup error, not a silent fallback at call time.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"LLM_API_KEY", c.LLMAPIKey},
		{"IMAGE_API_KEY", c.ImageAPIKey},
		{"VIDEO_API_KEY", c.VideoAPIKey},
		{"VOICE_API_KEY", c.VoiceAPIKey},
		{"SUPABASE_URL", c.SupabaseURL},
		{"SUPABASE_PUBLISHABLE_KEY", c.SupabasePublishableKey},
		{"SUPABASE_JWT_SECRET", c.SupabaseJWTSecret},
		{"DATABASE_URL", c.DatabaseURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationMS(key string, defaultMS int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return time.Duration(defaultMS) * time.Millisecond
}
