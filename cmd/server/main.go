package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "interviewgpt/docs"
	"interviewgpt/internal/config"
	"interviewgpt/internal/extract"
	"interviewgpt/internal/handler"
	"interviewgpt/internal/llm"
	"interviewgpt/internal/llm/claude"
	"interviewgpt/internal/llm/gemini"
	"interviewgpt/internal/llm/openai"
	"interviewgpt/internal/port"
	"interviewgpt/internal/prompt"
	"interviewgpt/internal/router"
	"interviewgpt/internal/service"
	"interviewgpt/internal/session"
	"interviewgpt/internal/staging"
)

// @title Interview API
// @version 1.0
// @description Upload a PDF resume and take a behavioral interview driven by a chat model.
// @BasePath /api/v1
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(&cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registerProviders()

	// Completion provider. The API key is checked per call so the server can
	// start without one and answer with CONFIGURATION_ERROR.
	client, err := llm.NewProvider(cfg.LLM.ProviderConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize llm provider: %w", err)
	}

	ocr, err := buildTranscriber(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("failed to initialize ocr: %w", err)
	}
	extractor := extract.NewExtractor(extract.FitzOpener{}, ocr, &cfg.Extract)

	stager, err := staging.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize staging: %w", err)
	}

	sessions, locker, checks, closeStore, err := buildSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer closeStore()

	svc := service.NewInterviewService(
		stager,
		extractor,
		client,
		prompt.NewAssembler(&cfg.LLM, cfg.Interview.MaxTurns),
		sessions,
		locker,
		&cfg.Upload,
		&cfg.Interview,
	)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.Setup(
		cfg.CORS.AllowedOrigins,
		handler.NewInterviewHandler(svc, &cfg.Upload),
		handler.NewChatHandler(svc),
		handler.NewExtractHandler(svc, &cfg.Upload),
		handler.NewHealthHandler(checks),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Port).
			Str("llm_provider", cfg.LLM.Provider).
			Str("model", cfg.LLM.Model).
			Str("session_backend", cfg.Session.Backend).
			Str("staging_backend", cfg.Staging.Backend).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setupLogger(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func registerProviders() {
	llm.RegisterProvider("openai", func(cfg *config.ProviderConfig) (port.Provider, error) {
		return openai.NewClient(cfg), nil
	})
	llm.RegisterProvider("claude", func(cfg *config.ProviderConfig) (port.Provider, error) {
		return claude.NewClient(cfg), nil
	})
	llm.RegisterProvider("gemini", func(cfg *config.ProviderConfig) (port.Provider, error) {
		return gemini.NewClient(cfg), nil
	})
}

// buildTranscriber chains the configured OCR providers. With none configured,
// OCR recognizes nothing and image-only PDFs fail as having no text.
func buildTranscriber(cfg *config.OCRConfig) (port.ImageTranscriber, error) {
	var (
		transcribers []port.ImageTranscriber
		names        []string
	)
	for _, pc := range []*config.ProviderConfig{cfg.PrimaryConfig(), cfg.SecondaryConfig(), cfg.TertiaryConfig()} {
		if pc == nil {
			continue
		}
		p, err := llm.NewProvider(pc)
		if err != nil {
			return nil, err
		}
		transcribers = append(transcribers, p)
		names = append(names, pc.Provider)
	}

	if len(transcribers) == 0 {
		log.Warn().Msg("ocr disabled: scanned resumes will be rejected")
		return llm.NoopTranscriber{}, nil
	}
	log.Info().Strs("providers", names).Msg("ocr enabled")
	return llm.NewFallbackTranscriber(transcribers, names), nil
}

func buildSessionStore(cfg *config.Config) (
	port.SessionStore, port.SessionLocker, map[string]handler.ReadinessCheck, func(), error,
) {
	switch cfg.Session.Backend {
	case "", "memory":
		return session.NewMemoryStore(cfg.Session.TTL), session.NewMemoryLocker(), nil, func() {}, nil
	case "redis":
		client := session.NewRedisClient(&cfg.Redis)
		// A lock must outlive the slowest completion, retries included.
		lockTTL := time.Duration(cfg.Interview.RateLimitRetries+1)*cfg.LLM.ProviderConfig().Timeout() +
			cfg.Interview.MaxRetryWait + 30*time.Second
		checks := map[string]handler.ReadinessCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
		closeFn := func() {
			if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
				log.Warn().Err(err).Msg("closing redis client")
			}
		}
		return session.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Session.TTL),
			session.NewRedisLocker(client, cfg.Redis.KeyPrefix, lockTTL),
			checks, closeFn, nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown session backend: %s", cfg.Session.Backend)
	}
}
