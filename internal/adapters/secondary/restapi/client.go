package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// envelope is the backend's uniform response shape. The duck-typed
// {success, data, error} of the wire becomes (value, error) at this
// boundary: callers never see a half-filled envelope.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// Config holds the HTTP client settings for the backend API.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the shared transport for the ticket and thread gateways.
// It attaches the bearer token from the token provider and translates
// failures into the GatewayError taxonomy. No retries at this layer.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  ports.TokenProvider
	logger  *slog.Logger
}

// NewClient creates the shared API client.
func NewClient(cfg Config, tokens ports.TokenProvider, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger.With("component", "restapi_client"),
	}
}

// doJSON performs one request and decodes the envelope's data field.
func doJSON[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return zero, apperrors.NewUnauthorizedError(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "path", path, "error", err)
		return zero, apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return zero, apperrors.NewUnauthorizedError(apperrors.ErrUnauthorized)
	}

	var env envelope[T]
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		if resp.StatusCode >= 400 {
			return zero, apperrors.NewServerRejectedError(resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return zero, apperrors.NewTransportError(fmt.Errorf("decode response: %w", decodeErr))
	}

	if !env.Success {
		c.logger.Warn("server rejected request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"error", env.Error,
		)
		gwErr := apperrors.NewServerRejectedError(resp.StatusCode, env.Error)
		if resp.StatusCode == http.StatusNotFound {
			gwErr.Err = apperrors.ErrNotFound
		}
		return zero, gwErr
	}

	return env.Data, nil
}
