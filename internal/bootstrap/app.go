package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"studyhub-backend/internal/ai"
	"studyhub-backend/internal/chats"
	"studyhub-backend/internal/documents"
	"studyhub-backend/internal/llm"
	"studyhub-backend/internal/llm/openai"
	"studyhub-backend/internal/shared/auth"
	"studyhub-backend/internal/shared/config"
	"studyhub-backend/internal/shared/server"
	"studyhub-backend/internal/shared/server/middleware"
	"studyhub-backend/internal/shared/storage/db"
	"studyhub-backend/internal/shared/storage/object"
	localstore "studyhub-backend/internal/shared/storage/object/local"
	"studyhub-backend/internal/study"
	"studyhub-backend/internal/usage"
	"studyhub-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	LLM    llm.Client

	UsersRepo     users.Repo
	ChatsRepo     chats.Repo
	DocumentsRepo documents.Repo
	StudyRepo     study.Repo

	Ledger           *usage.Ledger
	UsersService     *users.Service
	AIService        *ai.Service
	ChatsService     *chats.Service
	DocumentsService *documents.Service
	StudyService     *study.Service
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.Env)
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  localstore.New(cfg.UploadDir),
	}

	if sqlDB != nil {
		app.UsersRepo = &users.PGRepo{DB: sqlDB}
		app.ChatsRepo = &chats.PGRepo{DB: sqlDB}
		app.DocumentsRepo = &documents.PGRepo{DB: sqlDB}
		app.StudyRepo = &study.PGRepo{DB: sqlDB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.ChatsRepo = chats.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.StudyRepo = study.NewMemoryRepo()
	}

	app.LLM, err = buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app.Ledger = usage.NewLedger(app.UsersRepo)
	app.UsersService = &users.Service{Repo: app.UsersRepo}
	app.AIService = &ai.Service{
		LLM:    app.LLM,
		Chats:  app.ChatsRepo,
		Users:  app.UsersRepo,
		Ledger: app.Ledger,
		Model:  cfg.LLMModel,
	}
	app.ChatsService = &chats.Service{Repo: app.ChatsRepo}
	app.DocumentsService = &documents.Service{
		Repo:       app.DocumentsRepo,
		Store:      app.Store,
		Summarizer: app.AIService,
		Ledger:     app.Ledger,
	}
	app.StudyService = &study.Service{
		Repo:      app.StudyRepo,
		Chats:     app.ChatsRepo,
		Documents: app.DocumentsRepo,
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Signer:          signer,
		Limiter:         buildLimiter(cfg),
		UsersHandler:    users.NewHandler(app.UsersService, signer),
		UsageHandler:    usage.NewHandler(app.Ledger),
		AIHandler:       ai.NewHandler(app.AIService),
		ChatsHandler:    chats.NewHandler(app.ChatsService),
		DocumentHandler: documents.NewHandler(app.DocumentsService, cfg.MaxFileSize),
		StudyHandler:    study.NewHandler(app.StudyService),
	})

	return app, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider == "stub" {
		return llm.StubClient{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.ImageModel)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: openai unavailable; using stub provider: %v", err)
			return llm.StubClient{}, nil
		}
		return nil, err
	}
	return client, nil
}

func buildLimiter(cfg config.Config) middleware.Limiter {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return middleware.NewTokenBucketLimiter(nil)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return middleware.NewRedisLimiter(client, "studyhub:ratelimit")
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
