package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ironsheep/palmreader-mcp/internal/config"
	"github.com/ironsheep/palmreader-mcp/internal/oracle"
	"github.com/ironsheep/palmreader-mcp/internal/palm"
	"github.com/ironsheep/palmreader-mcp/internal/server"
	"github.com/ironsheep/palmreader-mcp/internal/speech"
	"github.com/ironsheep/palmreader-mcp/internal/store"
)

// runtime holds the collaborators built from the configuration.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	oracle *oracle.Oracle
	db     *store.DB
	srv    *server.Server
}

// setup loads the configuration and wires every collaborator.
//
// A missing API key is not fatal: feature extraction keeps working and the
// reading tools report the missing key.
func setup(c *cli.Context) (*runtime, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	// stdout is for MCP protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger}

	gemini, err := oracle.NewGeminiClient(oracle.GeminiConfig{
		APIKey:   cfg.Gemini.APIKey,
		Model:    cfg.Gemini.Model,
		Endpoint: cfg.Gemini.Endpoint,
		Timeout:  cfg.Gemini.Timeout,
	}, logger)
	switch {
	case errors.Is(err, oracle.ErrMissingAPIKey):
		logger.Warn("readings disabled", "reason", err)
	case err != nil:
		return nil, err
	default:
		rt.oracle = oracle.New(gemini, cfg.UserAge, logger)
	}

	if cfg.Cache.Path != "" {
		db, err := store.Open(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open reading cache: %w", err)
		}
		rt.db = db
	}

	tts := speech.NewGoogleTTS(speech.Config{
		Endpoint:  cfg.Speech.Endpoint,
		OutputDir: cfg.Speech.OutputDir,
		Timeout:   cfg.Speech.Timeout,
	}, logger)

	opts := server.Options{
		Oracle:         rt.oracle,
		Synthesizer:    tts,
		Store:          rt.db,
		SpeechLanguage: cfg.Speech.Language,
		Folder:         cfg.Folder,
		Model:          cfg.Gemini.Model,
		Version:        Version,
		Logger:         logger,
	}
	rt.srv = server.New(opts)

	logger.Debug("configured",
		"version", Version,
		"backend", palm.Backend,
		"model", cfg.Gemini.Model,
		"cache", cfg.Cache.Path,
		"readings", rt.oracle != nil)
	return rt, nil
}

func (rt *runtime) Close() error {
	if rt.db != nil {
		return rt.db.Close()
	}
	return nil
}

// requireOracle fails with the missing-key error when readings are disabled.
func (rt *runtime) requireOracle() (*oracle.Oracle, error) {
	if rt.oracle == nil {
		return nil, oracle.ErrMissingAPIKey
	}
	return rt.oracle, nil
}
