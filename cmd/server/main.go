package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"videoai-studio-backend/internal/config"
	"videoai-studio-backend/internal/database"
	"videoai-studio-backend/internal/handlers"
	"videoai-studio-backend/internal/imagegen"
	"videoai-studio-backend/internal/llm"
	"videoai-studio-backend/internal/logging"
	"videoai-studio-backend/internal/middleware"
	"videoai-studio-backend/internal/services"
	"videoai-studio-backend/internal/supabase"
	"videoai-studio-backend/internal/videogen"
	"videoai-studio-backend/internal/voice"
)

func main() {
	// Missing .env is fine in production, where config comes from the
	// environment directly.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Log.WithField("error", err.Error()).Fatal("failed to load configuration")
	}
	logging.Init(cfg.Environment)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		logging.Log.WithField("error", err.Error()).Fatal("failed to connect for migrations")
	}
	if err := migrator.Run(); err != nil {
		logging.Log.WithField("error", err.Error()).Fatal("failed to run migrations")
	}
	migrator.Close()

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		logging.Log.WithField("error", err.Error()).Fatal("failed to create supabase client")
	}

	storageClient := supabase.NewStorageClient(supabaseClient, cfg.SupabaseStorageBucket)

	db, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		logging.Log.WithField("error", err.Error()).Fatal("failed to connect to database")
	}
	defer db.Close()

	realtimeClient := supabase.NewRealtimeClient(cfg.SupabaseURL, cfg.SupabasePublishableKey)

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	imageClient := imagegen.NewClient(cfg.ImageBaseURL, cfg.ImageAPIKey, cfg.ImagePollInterval, cfg.ImagePollTimeout)
	videoClient := videogen.NewClient(cfg.VideoBaseURL, cfg.VideoAPIKey, cfg.VideoPollInterval, cfg.VideoPollTimeout)
	voiceClient := voice.NewClient(cfg.VoiceBaseURL, cfg.VoiceAPIKey, cfg.VoiceID)

	pipeline := services.NewPipeline(imageClient, videoClient, db, storageClient, realtimeClient)

	healthHandler := handlers.NewHealthHandler()
	scriptHandler := handlers.NewScriptHandler(llmClient)
	projectHandler := handlers.NewProjectHandler(db, storageClient)
	imageHandler := handlers.NewImageHandler(pipeline)
	videoHandler := handlers.NewVideoHandler(pipeline)
	voiceHandler := handlers.NewVoiceHandler(voiceClient)
	subscriptionHandler := handlers.NewSubscriptionHandler(db)
	progressHandler := handlers.NewProgressHandler(db, cfg)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger())

	router.GET("/health", healthHandler.Check)

	// WebSocket clients cannot set an Authorization header, so the progress
	// feed authenticates itself from the query string.
	router.GET("/projects/:project_id/progress", progressHandler.Stream)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		api.POST("/scripts/generate", scriptHandler.Generate)

		api.POST("/projects", projectHandler.Create)
		api.GET("/projects", projectHandler.List)
		api.GET("/projects/:project_id", projectHandler.Get)
		api.GET("/projects/:project_id/status", projectHandler.Status)
		api.PATCH("/projects/:project_id", projectHandler.Update)
		api.DELETE("/projects/:project_id", projectHandler.Delete)
		api.POST("/projects/:project_id/images", imageHandler.GenerateAll)

		api.POST("/generate/image", imageHandler.Generate)
		api.POST("/generate/video", videoHandler.Generate)
		api.POST("/generate/voice", voiceHandler.Generate)

		api.GET("/subscription", subscriptionHandler.Get)
	}

	logging.Log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"environment": cfg.Environment,
	}).Info("starting server")

	if err := router.Run(":" + cfg.Port); err != nil {
		logging.Log.WithField("error", err.Error()).Fatal("server exited")
	}
}
