// Package genai is a minimal REST client for the generative language
// API. It only supports what the extraction and risk clients need:
// single-turn generateContent calls with an enforced JSON response
// schema, optionally carrying inline image data.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ayurmed/hms-api/internal/config"
	"github.com/ayurmed/hms-api/pkg/errors"
	"github.com/ayurmed/hms-api/pkg/metrics"
)

// Call kinds used as the metric label for model calls.
const (
	KindExtraction = "extraction"
	KindRisk       = "risk"
)

type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

func NewClient(cfg config.GenAIConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithMetrics enables per-call counters and latency observation.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// Part is one element of a generateContent request.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries base64-encoded image bytes.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"response_mime_type"`
	ResponseSchema   json.RawMessage `json:"response_schema,omitempty"`
}

type content struct {
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON performs a generateContent call constrained to JSON
// output by schema and returns the raw response text with any markdown
// code fences stripped. Decoding into the caller's shape stays with the
// caller so schema violations surface there. kind labels the call in
// the metrics.
func (c *Client) GenerateJSON(ctx context.Context, kind string, parts []Part, schema json.RawMessage) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, parts, schema)
	c.observe(kind, time.Since(start), err)
	return text, err
}

func (c *Client) observe(kind string, elapsed time.Duration, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.ModelCalls.WithLabelValues(kind, status).Inc()
	c.metrics.ModelLatency.Observe(elapsed.Seconds())
}

func (c *Client) generate(ctx context.Context, parts []Part, schema json.RawMessage) (string, error) {
	if c.apiKey == "" {
		return "", errors.Configuration("generative model API key is not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call model: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}

	text := CleanJSON(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}

// CleanJSON strips markdown code fences some models wrap around JSON.
func CleanJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
