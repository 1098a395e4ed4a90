package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"reviewhub/database"
	"reviewhub/internal/auth"
	"reviewhub/internal/config"
	"reviewhub/internal/handler"
	"reviewhub/internal/mailer"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Connect to the database
	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	// 3. Confirmation-code bookkeeping: Redis when configured, otherwise
	// an in-process store (codes issued before a restart stay valid, but
	// their consumed marks are lost)
	var codeStore auth.ConsumedCodeStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("could not parse REDIS_URL: %v", err)
		}
		if cfg.RedisPassword != "" {
			opts.Password = cfg.RedisPassword
		}
		codeStore = auth.NewRedisCodeStore(redis.NewClient(opts))
		logger.Info("Using Redis for confirmation-code bookkeeping")
	} else {
		codeStore = auth.NewMemoryCodeStore(time.Now)
		logger.Warn("REDIS_URL not set, using in-memory confirmation-code store")
	}

	codes := auth.NewConfirmationCodes(cfg.JWTSecret, cfg.ConfirmationTTL, codeStore, time.Now)
	tokens := auth.NewAccessTokens(cfg.JWTSecret, cfg.AccessTokenTTL, time.Now)
	mail := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPPassword)

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepo(db)
	genreRepo := repository.NewGenreRepo(db)
	titleRepo := repository.NewTitleRepo(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// 5. Services
	authService := service.NewAuthService(userRepo, codes, tokens, mail, time.Now)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	genreService := service.NewGenreService(genreRepo)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo, time.Now)
	reviewService := service.NewReviewService(reviewRepo, titleRepo)
	commentService := service.NewCommentService(commentRepo, reviewRepo)

	// 6. Router
	r := handler.NewRouter(handler.RouterDeps{
		Auth:       handler.NewAuthHandler(authService),
		Users:      handler.NewUserHandler(userService),
		Categories: handler.NewCategoryHandler(categoryService),
		Genres:     handler.NewGenreHandler(genreService),
		Titles:     handler.NewTitleHandler(titleService),
		Reviews:    handler.NewReviewHandler(reviewService),
		Comments:   handler.NewCommentHandler(commentService),

		Tokens: tokens,

		CORSOrigins: cfg.CORSOrigins,
		AuthRPS:     cfg.AuthRateLimit,
		AuthBurst:   cfg.AuthRateBurst,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("Server starting", "addr", addr, "env", cfg.GoEnv)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
