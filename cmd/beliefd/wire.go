package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"beliefd/internal/config"
	"beliefd/internal/engine"
	"beliefd/internal/registry"
	"beliefd/internal/structured"
	"beliefd/internal/tracing"
)

// buildService assembles the generation service from cfg. Backend failures
// are logged and leave the service unhealthy rather than aborting startup.
func buildService(ctx context.Context, cfg config.Config, lg zerolog.Logger) (*engine.Service, error) {
	opts := engine.Options{
		ModelType:     cfg.ModelType,
		ModelName:     cfg.ModelName(),
		Temperature:   float32(cfg.Temperature),
		MaxTokens:     cfg.MaxTokens,
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       cfg.MaxWait(),
		Tracer:        tracing.New(cfg.Tracing),
		Logger:        &lg,
	}
	if cfg.UseStructuredOutput {
		schema, err := structured.Lookup(cfg.ResponseSchema)
		if err != nil {
			return nil, err
		}
		opts.Structured = schema
	}

	backend, err := buildBackend(cfg, lg)
	if err != nil {
		lg.Error().Err(err).Str("backend", cfg.Backend).Msg("model backend unavailable")
	}
	if strings.EqualFold(cfg.ModelType, config.ModelTypeVLM) && backend != nil {
		img, err := engine.LoadImage(ctx, http.DefaultClient, cfg.FixedImageURL, cfg.ImageFetchTimeout())
		if err != nil {
			lg.Error().Err(err).Str("url", cfg.FixedImageURL).Msg("fixed image unavailable")
		} else {
			lg.Info().Str("mime", img.MIME).Int("bytes", len(img.Data)).Msg("fixed image loaded")
			opts.Image = img
		}
	}
	lg.Info().
		Str("model_type", cfg.ModelType).
		Str("model", opts.ModelName).
		Str("backend", cfg.Backend).
		Bool("structured", opts.Structured != nil).
		Bool("tracing", cfg.Tracing.Enabled && cfg.Tracing.APIKey != "").
		Msg("generation service configured")
	return engine.NewService(backend, opts), nil
}

func buildBackend(cfg config.Config, lg zerolog.Logger) (engine.Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendLlama:
		path, err := registry.Resolve(cfg.ModelPath, cfg.ModelName())
		if err != nil {
			return nil, err
		}
		lg.Info().Str("path", path).Bool("llama_built", engine.LlamaBuilt()).Msg("loading llama model")
		return engine.NewLlamaBackend(path, cfg.LlamaCtx, cfg.LlamaThreads)
	default:
		return engine.NewOpenAIBackend(cfg.BackendURL, cfg.BackendAPIKey, cfg.ModelName(), cfg.RequestTimeout(), 5*time.Second, lg), nil
	}
}
