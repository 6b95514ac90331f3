package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/replyd/internal/config"
	"github.com/teemow/replyd/internal/faults"
	"github.com/teemow/replyd/internal/instrumentation"
	"github.com/teemow/replyd/internal/logging"
)

// truncationMarker is appended when an email body exceeds the truncation
// limit before prompting.
const truncationMarker = "\n\n[Email truncated due to length...]"

// Client talks to a local Ollama instance over its HTTP API.
type Client struct {
	baseURL    string
	model      string
	maxRetries int
	retryDelay time.Duration
	bodyLimit  int
	template   string

	requestTimeout time.Duration
	statusTimeout  time.Duration

	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics

	// sleep is swapped out in tests to avoid real delays.
	sleep func(time.Duration)
}

// NewClient creates an Ollama client from configuration. bodyLimit bounds
// how many characters of an email body end up in a prompt; zero or negative
// selects the default.
func NewClient(cfg config.OllamaConfig, bodyLimit int, logger *slog.Logger, metrics *instrumentation.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if bodyLimit <= 0 {
		bodyLimit = maxEmailChars
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.APIBaseURL, "/"),
		model:          cfg.ModelName,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay(),
		bodyLimit:      bodyLimit,
		template:       cfg.SuggestionTemplate,
		requestTimeout: cfg.RequestTimeout(),
		statusTimeout:  cfg.StatusTimeout(),
		httpClient:     &http.Client{},
		logger:         logging.WithService(logger, "ollama"),
		metrics:        metrics,
		sleep:          time.Sleep,
	}
}

// Result holds the outcome of one generation.
type Result struct {
	Suggestions []string

	// Fallback is true when the model's output could not be parsed and the
	// canned suggestions were substituted.
	Fallback bool
}

// generateRequest is the non-streaming generate payload.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// GenerateSuggestions produces reply suggestions for an email body. When
// threadContext is non-empty the conversation-aware prompt is used instead
// of the standalone one. The body is truncated before prompting; the request
// is retried on failure up to the configured bound with a fixed delay
// between attempts.
func (c *Client) GenerateSuggestions(ctx context.Context, emailBody, threadContext string) (*Result, error) {
	if strings.TrimSpace(emailBody) == "" {
		return nil, faults.New(faults.KindValidation, "email body must be non-empty")
	}

	truncated := truncateEmail(emailBody, c.bodyLimit)
	if len(truncated) != len(emailBody) {
		c.logger.Info("email body truncated",
			slog.Int("original_chars", len(emailBody)),
			slog.Int("truncated_chars", len(truncated)),
		)
	}

	var prompt string
	if threadContext != "" {
		prompt = buildContextPrompt(threadContext)
	} else {
		prompt = buildPrompt(c.template, truncated)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		raw, err := c.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			c.logger.Error("generation request failed",
				logging.Attempt(attempt),
				logging.Err(err),
			)
			if attempt < c.maxRetries {
				c.metrics.RecordOllamaRetry(ctx, c.model)
				c.sleep(c.retryDelay)
				continue
			}
			return nil, err
		}

		suggestions, fallback := parseSuggestions(raw)
		if len(suggestions) == 0 {
			lastErr = faults.New(faults.KindPermanent, "ollama returned empty or unparsable response")
			c.logger.Warn("no valid suggestions in response", logging.Attempt(attempt))
			if attempt < c.maxRetries {
				c.metrics.RecordOllamaRetry(ctx, c.model)
				c.sleep(c.retryDelay)
				continue
			}
			return nil, lastErr
		}

		c.logger.Info("generated suggestions",
			slog.Int("count", len(suggestions)),
			slog.Bool("fallback", fallback),
		)
		return &Result{Suggestions: suggestions, Fallback: fallback}, nil
	}

	return nil, lastErr
}

// generate performs a single non-streaming generate call.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	raw, err := c.doGenerate(ctx, prompt)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordOllamaGeneration(ctx, c.model, status, time.Since(start))

	return raw, err
}

func (c *Client) doGenerate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", faults.Wrap(faults.KindPermanent, err, "failed to encode generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", faults.Wrap(faults.KindPermanent, err, "failed to build generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", faults.Wrap(faults.KindTransient, err,
				fmt.Sprintf("request to ollama timed out after %s", c.requestTimeout)).
				WithCode(http.StatusGatewayTimeout)
		}
		return "", faults.Wrap(faults.KindTransient, err,
			"ollama service not reachable, make sure ollama is running")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		kind := faults.KindPermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			kind = faults.KindTransient
		}
		return "", faults.Newf(kind, "ollama API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", faults.Wrap(faults.KindTransient, err, "failed to read ollama response")
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", faults.Wrap(faults.KindPermanent, err, "failed to decode ollama response")
	}

	return decoded.Response, nil
}

// StatusInfo describes the availability of the generation backend.
type StatusInfo struct {
	Running        bool     `json:"ollama_running"`
	ModelAvailable bool     `json:"model_available"`
	Model          string   `json:"model"`
	Models         []string `json:"models,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Status probes the tags endpoint to check whether Ollama is reachable and
// whether the configured model is installed. Probe failures are reported in
// the result rather than as errors.
func (c *Client) Status(ctx context.Context) StatusInfo {
	info := StatusInfo{Model: c.model}

	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		c.logger.Error("failed to build status request", logging.Err(err))
		return info
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ollama status probe failed", logging.Err(err))
		return info
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("ollama status probe returned error",
			slog.Int("status_code", resp.StatusCode),
		)
		return info
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		c.logger.Error("failed to decode tags response", logging.Err(err))
		return info
	}

	info.Running = true
	for _, m := range tags.Models {
		info.Models = append(info.Models, m.Name)
		if m.Name == c.model {
			info.ModelAvailable = true
		}
	}

	if !info.ModelAvailable {
		c.logger.Warn("ollama running but configured model not installed",
			slog.String("model", c.model),
		)
	}
	return info
}

// maxEmailChars bounds the email body included in a prompt.
const maxEmailChars = 4000

// truncateEmail cuts an over-long body and appends the truncation marker.
func truncateEmail(body string, maxChars int) string {
	if len(body) <= maxChars {
		return body
	}
	return body[:maxChars] + truncationMarker
}
