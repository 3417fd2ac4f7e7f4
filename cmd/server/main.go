package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/BerylCAtieno/body-shape-agent/internal/a2a"
	"github.com/BerylCAtieno/body-shape-agent/internal/agent"
	"github.com/BerylCAtieno/body-shape-agent/internal/api"
	"github.com/BerylCAtieno/body-shape-agent/internal/config"
	"github.com/BerylCAtieno/body-shape-agent/internal/estimator"
	"github.com/BerylCAtieno/body-shape-agent/internal/gallery"
	"github.com/BerylCAtieno/body-shape-agent/internal/landmarks"
	"github.com/BerylCAtieno/body-shape-agent/internal/logging"
	"github.com/BerylCAtieno/body-shape-agent/internal/metrics"
	"github.com/BerylCAtieno/body-shape-agent/internal/middleware"
	"github.com/BerylCAtieno/body-shape-agent/internal/routine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "console")
		log.Fatal().Err(err).Msg("config failed")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()

	text, closeText := newTextGenerator(ctx, cfg)
	defer closeText()

	store, imageURL, galleryFS, closeStore := newGallery(ctx, cfg)
	defer closeStore()

	svc := estimator.NewService(estimator.Config{
		Detector:          landmarks.NewHTTPDetector(cfg.Pose.URL, cfg.Pose.Timeout),
		Sampler:           gallery.NewSampler(store, nil),
		Routines:          routine.NewGenerator(text, cfg.Routine.Timeout, reg),
		Metrics:           reg,
		ImagesPerCategory: cfg.Gallery.Count,
		ImageURL:          imageURL,
	})

	a2aHandler := a2a.NewA2AHandler(svc, cfg.PublicURL, cfg.Pose.MaxImageBytes)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(reg))

	// Endpoints
	router.GET("/.well-known/agent.json", a2aHandler.ServeAgentCard)
	router.POST(agent.EndpointPath, a2aHandler.HandleMessage)

	api.NewHandler(svc, cfg.Pose.MaxImageBytes).Register(router)
	if galleryFS != nil {
		api.RegisterGallery(router, galleryFS.FS())
	}

	router.GET("/metrics", reg.HandlerText)
	router.GET("/metrics.json", reg.HandlerJSON)
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("port", cfg.Port).
		Str("agent_card", cfg.PublicURL+"/.well-known/agent.json").
		Str("a2a_endpoint", cfg.PublicURL+agent.EndpointPath).
		Str("gallery", cfg.Gallery.Backend).
		Str("routine_provider", cfg.Routine.Provider).
		Msg("Body Shape Agent starting")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

// newTextGenerator returns the configured routine backend, or nil when the
// routine is switched off or has no API key.
func newTextGenerator(ctx context.Context, cfg config.Config) (routine.TextGenerator, func()) {
	noop := func() {}
	if cfg.Routine.Provider == config.ProviderNone {
		log.Info().Msg("routine generation disabled")
		return nil, noop
	}
	if cfg.RoutineAPIKey() == "" {
		log.Warn().Str("provider", cfg.Routine.Provider).Msg("no API key for routine provider, routine generation disabled")
		return nil, noop
	}

	switch cfg.Routine.Provider {
	case config.ProviderOpenAI:
		return routine.NewOpenAIClient(cfg.Routine.OpenAIAPIKey, cfg.Routine.OpenAIBaseURL, cfg.Routine.OpenAIModel), noop
	default:
		client, err := routine.NewGeminiClient(ctx, cfg.Routine.GeminiAPIKey, cfg.Routine.GeminiModel)
		if err != nil {
			log.Error().Err(err).Msg("failed to create Gemini client, routine generation disabled")
			return nil, noop
		}
		return client, func() { _ = client.Close() }
	}
}

// newGallery builds the asset store. The directory store is also served
// under /gallery, so its image URLs point back at this service.
func newGallery(ctx context.Context, cfg config.Config) (gallery.AssetStore, func(gallery.ImageRef) string, *gallery.DirStore, func()) {
	if cfg.Gallery.Backend == config.GalleryGCS {
		store, err := gallery.NewGCSStore(ctx, cfg.Gallery.Bucket, cfg.Gallery.Prefix)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.Gallery.Bucket).Msg("gallery store failed")
		}
		return store, store.URL, nil, closer(store)
	}

	if _, err := os.Stat(cfg.Gallery.Dir); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Gallery.Dir).Msg("gallery directory missing, images will be omitted")
	}
	store := gallery.NewDirStore(cfg.Gallery.Dir)
	base := strings.TrimRight(cfg.PublicURL, "/") + "/gallery/"
	imageURL := func(ref gallery.ImageRef) string {
		segments := strings.Split(string(ref), "/")
		for i, s := range segments {
			segments[i] = url.PathEscape(s)
		}
		return base + strings.Join(segments, "/")
	}
	return store, imageURL, store, func() {}
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}
