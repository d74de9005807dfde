package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/sirupsen/logrus"
)

// Service is the generation backend: one prompt in, one text out.
type Service interface {
	Generate(ctx context.Context, modelID, prompt string) (string, error)
}

// GeminiAI talks to the Gemini generateContent REST API.
type GeminiAI struct {
	apiKey         string
	baseURL        string
	attemptTimeout time.Duration
	maxAttempts    int
	httpClient     *http.Client
	logger         *logrus.Logger
}

// NewGemini creates a Gemini-backed generation service.
func NewGemini(cfg *config.GeminiConfig, logger *logrus.Logger) *GeminiAI {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &GeminiAI{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		attemptTimeout: cfg.RequestTimeout,
		maxAttempts:    maxAttempts,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

type generateRequest struct {
	SystemInstruction content         `json:"system_instruction"`
	Contents          []content       `json:"contents"`
	SafetySettings    []safetySetting `json:"safetySettings"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// statusError marks a non-2xx backend reply so the retry loop can tell
// transient failures from client errors.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend request failed with status %d: %s", e.status, e.body)
}

func (e *statusError) transient() bool {
	return e.status >= 500 || e.status == http.StatusTooManyRequests
}

// Generate calls the backend with retry on transient failures.
// Backoff doubles per attempt: 2s, 4s, 8s.
func (s *GeminiAI) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		response, err := s.generateOnce(ctx, modelID, prompt, attempt)
		if err == nil {
			return response, nil
		}

		var sErr *statusError
		if errors.As(err, &sErr) && !sErr.transient() {
			return "", err
		}

		lastErr = err
		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
			"model":   modelID,
		}).Warn("Backend request failed, retrying...")

		if attempt < s.maxAttempts {
			waitTime := time.Duration(2<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return "", fmt.Errorf("all retry attempts failed: %w", lastErr)
}

func (s *GeminiAI) generateOnce(ctx context.Context, modelID, prompt string, attempt int) (string, error) {
	settings := make([]safetySetting, 0, len(safetyCategories))
	for _, category := range safetyCategories {
		settings = append(settings, safetySetting{Category: category, Threshold: "BLOCK_NONE"})
	}

	reqBody := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: SystemInstruction}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		SafetySettings:    settings,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, modelID)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	s.logger.WithFields(logrus.Fields{
		"model":   modelID,
		"attempt": attempt,
	}).Debug("Sending backend request")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"status":  resp.StatusCode,
			"body":    string(body),
			"attempt": attempt,
		}).Error("Backend request failed")
		return "", &statusError{status: resp.StatusCode, body: string(body)}
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error.Message != "" {
		return "", fmt.Errorf("backend error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in backend response")
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from backend")
	}

	return text.String(), nil
}
