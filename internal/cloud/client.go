// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/bnanab/internal/model"
)

// Configuration constants for the Anthropic API.
const (
	// DefaultBaseURL is the API origin; the client appends /v1/messages.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is the model requested when none is configured.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// DefaultVersion is sent in the anthropic-version header.
	DefaultVersion = "2023-06-01"

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// FallbackText replaces the reply when a completion fails.
	FallbackText = "Sorry, I encountered an error. Please try again."

	// DefaultSystemPrompt is the fixed assistant instruction.
	DefaultSystemPrompt = "You are BnanaB, a highly intelligent and helpful AI assistant. " +
		"You are expert at everything including coding, writing, problem-solving, and general knowledge. " +
		"You provide clear, accurate, and detailed responses. " +
		"When writing code, always provide complete, working solutions with proper explanations."
)

var (
	// ErrMissingAPIKey means settings carry no API key. No request is made.
	ErrMissingAPIKey = errors.New("please set your Anthropic API key in settings")

	// ErrEmptyResponse means the response had no text in its first content block.
	ErrEmptyResponse = errors.New("response contained no text content")

	// ErrResponseTooLarge means the body exceeded the configured limit.
	ErrResponseTooLarge = errors.New("response exceeds size limit")
)

// sharedTransport pools connections for all clients.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        10,
	MaxIdleConnsPerHost: 4,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// =============================================================================
// CLIENT
// =============================================================================

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL      string
	Model        string
	Version      string
	SystemPrompt string

	// Timeout bounds a whole request. Zero means no client-side timeout.
	Timeout time.Duration

	// MaxResponseBytes caps the response body. Zero means MaxResponseSize.
	MaxResponseBytes int64

	// HTTPClient overrides the pooled client, mainly for tests.
	HTTPClient *http.Client

	Logger *zap.Logger
}

// Client sends chat histories to the Messages API.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	model   string

	version      string
	systemPrompt string
	maxBytes     int64
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		model:        DefaultModel,
		version:      DefaultVersion,
		systemPrompt: DefaultSystemPrompt,
		maxBytes:     MaxResponseSize,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}
	if opts.BaseURL != "" {
		c.baseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	if opts.Model != "" {
		c.model = opts.Model
	}
	if opts.Version != "" {
		c.version = opts.Version
	}
	if opts.SystemPrompt != "" {
		c.systemPrompt = opts.SystemPrompt
	}
	if opts.MaxResponseBytes > 0 {
		c.maxBytes = opts.MaxResponseBytes
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: sharedTransport, Timeout: opts.Timeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.Named("cloud")
	return c
}

// SetModel changes the model for subsequent requests.
func (c *Client) SetModel(model string) {
	if model == "" {
		return
	}
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
}

// Model returns the current model.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetBaseURL changes the API origin for subsequent requests.
func (c *Client) SetBaseURL(url string) {
	if url == "" {
		return
	}
	c.mu.Lock()
	c.baseURL = strings.TrimSuffix(url, "/")
	c.mu.Unlock()
}

// BaseURL returns the current API origin.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete sends the whole history and returns one assistant message.
//
// With a blank settings.APIKey it returns ErrMissingAPIKey and performs no
// network I/O. Otherwise the error is always nil: any transport, status or
// parse failure yields an assistant message containing FallbackText.
func (c *Client) Complete(ctx context.Context, history []model.Message, settings model.Settings) (model.Message, error) {
	apiKey := strings.TrimSpace(settings.APIKey)
	if apiKey == "" {
		return model.Message{}, ErrMissingAPIKey
	}

	start := time.Now()
	text, err := c.send(ctx, apiKey, history, settings)
	if err != nil {
		c.logger.Warn("completion failed, using fallback reply",
			zap.Error(err),
			zap.String("key_fingerprint", keyFingerprint(apiKey)),
			zap.Int("history_len", len(history)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return model.NewAssistantMessage(FallbackText), nil
	}

	c.logger.Debug("completion succeeded",
		zap.Int("history_len", len(history)),
		zap.Int("reply_len", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return model.NewAssistantMessage(text), nil
}

func (c *Client) send(ctx context.Context, apiKey string, history []model.Message, settings model.Settings) (string, error) {
	c.mu.RLock()
	endpoint := c.baseURL + "/v1/messages"
	modelName := c.model
	c.mu.RUnlock()

	body, err := json.Marshal(messagesRequest{
		Model:       modelName,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
		System:      c.systemPrompt,
		Messages:    toAPIMessages(history),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", c.version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return "", ErrResponseTooLarge
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", parseAPIError(resp.StatusCode, data)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == nil {
		if apiErr := parseAPIError(resp.StatusCode, data); apiErr.Type != "" {
			return "", apiErr
		}
		return "", ErrEmptyResponse
	}
	return *parsed.Content[0].Text, nil
}

func parseAPIError(status int, data []byte) *APIError {
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return &APIError{Status: status, Type: er.Error.Type, Message: er.Error.Message}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{Status: status, Message: msg}
}

// keyFingerprint identifies a key in logs without revealing it.
func keyFingerprint(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:4])
}
