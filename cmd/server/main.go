package main

import (
	"context"
	"log"

	"complaintdraft-backend/config"
	"complaintdraft-backend/handlers"
	"complaintdraft-backend/llm"
	"complaintdraft-backend/repository"
	"complaintdraft-backend/schema"
	"complaintdraft-backend/service"
	"complaintdraft-backend/storage"
	"complaintdraft-backend/triage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	foundEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if !foundEnv {
		logger.Warn("no .env file found, using environment variables")
	}

	ctx := context.Background()

	// Offense schemas and triage rules
	schemaSource, err := storage.NewStorage(cfg.SchemaStorage)
	if err != nil {
		logger.Fatal("failed to initialize schema storage", zap.Error(err))
	}
	loader := schema.NewLoader(schemaSource, schema.WithLogger(logger))
	if err := loader.Preload(ctx, cfg.PreloadOffenses...); err != nil {
		logger.Fatal("offense schema failed validation", zap.Error(err))
	}
	evaluator := triage.NewEvaluator(schemaSource, triage.WithLogger(logger))
	if err := evaluator.Preload(ctx, cfg.PreloadOffenses...); err != nil {
		logger.Fatal("triage rules failed validation", zap.Error(err))
	}
	logger.Info("offense schemas loaded", zap.Strings("offenses", cfg.PreloadOffenses))

	// Draft exports
	draftStorage, err := storage.NewStorage(cfg.DraftStorage)
	if err != nil {
		logger.Fatal("failed to initialize draft storage", zap.Error(err))
	}

	// Text generation
	geminiClient, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey)
	if err != nil {
		logger.Fatal("failed to initialize Gemini", zap.Error(err))
	}
	defer geminiClient.Close()

	generator := llm.NewGeminiGenerator(geminiClient,
		llm.GeminiWithMaxAttempts(cfg.LLM.MaxAttempts),
		llm.GeminiWithTimeout(cfg.LLM.Timeout),
		llm.GeminiWithLogger(logger),
	)

	opts := []service.IntakeServiceOption{
		service.IntakeWithSessionStore(repository.NewMemorySessionStore()),
		service.IntakeWithSchemaLoader(loader),
		service.IntakeWithTriageEvaluator(evaluator),
		service.IntakeWithExtractor(service.NewElementExtractor(generator, cfg.LLM.Model, logger)),
		service.IntakeWithCautionClassifier(service.NewCautionClassifier(generator, cfg.LLM.Model)),
		service.IntakeWithComposer(service.NewComplaintComposer(generator, cfg.LLM.Model)),
		service.IntakeWithDraftStorage(draftStorage),
		service.IntakeWithLogger(logger),
	}

	// Draft archive is optional
	var draftRepo *repository.DraftRepository
	if cfg.DatabaseURL != "" {
		db, err := initPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to initialize Postgres", zap.Error(err))
		}
		defer db.Close()

		draftRepo = repository.NewDraftRepository(db)
		opts = append(opts, service.IntakeWithDraftArchive(draftRepo))
		logger.Info("draft archive enabled")
	} else {
		logger.Info("DATABASE_URL not set, draft archive disabled")
	}

	intakeService := service.NewIntakeService(opts...)

	// Setup Gin router
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	handlers.NewChatHandler(intakeService).RegisterRoutes(api)
	if draftRepo != nil {
		handlers.NewDraftHandler(draftRepo, draftStorage).RegisterRoutes(api)
	}

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
