package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-1.5-flash"

	// DefaultEndpoint is the Gemini REST API base URL.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout bounds a single generateContent call.
	DefaultTimeout = 60 * time.Second

	defaultAPIVersion = "v1beta"
)

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// Model is the model name, e.g. "gemini-1.5-flash".
	Model string

	// Endpoint is the API base URL. A trailing version segment such as
	// "/v1beta" selects the API version.
	Endpoint string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// GeminiClient generates text through the Gemini generateContent API.
// It is safe for concurrent use.
type GeminiClient struct {
	model    string
	endpoint string
	timeout  time.Duration
	client   *genai.Client
	logger   *slog.Logger
}

// NewGeminiClient creates a client from cfg.
// Returns ErrMissingAPIKey if cfg.APIKey is empty.
func NewGeminiClient(cfg GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	baseURL, version := splitEndpoint(cfg.Endpoint)
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		model:    cfg.Model,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		timeout:  cfg.Timeout,
		client:   client,
		logger:   logger,
	}, nil
}

var versionSegment = regexp.MustCompile(`^v\d+[a-z0-9]*$`)

// splitEndpoint separates a trailing API version from the base URL.
func splitEndpoint(endpoint string) (baseURL, version string) {
	endpoint = strings.TrimRight(endpoint, "/")
	if i := strings.LastIndex(endpoint, "/"); i >= 0 && versionSegment.MatchString(endpoint[i+1:]) {
		return endpoint[:i+1], endpoint[i+1:]
	}
	return endpoint + "/", defaultAPIVersion
}

// Model returns the configured model name.
func (g *GeminiClient) Model() string {
	return g.model
}

// Generate sends prompt to the model and returns the text of the first
// candidate, trimmed of surrounding whitespace.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.NewString()
	start := time.Now()
	g.logger.Debug("gemini request", "request_id", requestID, "model", g.model, "prompt_chars", len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrGeneration, ctxErr)
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			g.logger.Warn("gemini error", "request_id", requestID, "status", apiErr.Code, "message", apiErr.Message)
			return "", fmt.Errorf("%w: status %d: %s", ErrGeneration, apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("%w: request failed: %w", ErrGeneration, err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", ErrGeneration, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates in response", ErrGeneration)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response (finish reason %s)", ErrGeneration, resp.Candidates[0].FinishReason)
	}

	g.logger.Debug("gemini response", "request_id", requestID, "chars", len(text), "elapsed", time.Since(start))
	return text, nil
}
