package renderer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/flocktrack/internal/config"
)

// Client exposes the headless rendering operations used by the application.
type Client interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a rendering service client using the provided configuration values.
func NewClient(cfg config.RendererConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))
	}

	return &APIClient{httpClient: restyClient}
}

// RenderRequest describes the page to screenshot.
type RenderRequest struct {
	URL      string
	Width    int
	Height   int
	FullPage bool
}

// apiError represents a rendering service error payload.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Render screenshots req.URL and returns the PNG bytes.
func (c *APIClient) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("render url must not be empty")
	}
	width, height := req.Width, req.Height
	if width <= 0 {
		width = 1080
	}
	if height <= 0 {
		height = 1350
	}

	payload := map[string]any{
		"url":      req.URL,
		"format":   "png",
		"fullPage": req.FullPage,
		"viewport": map[string]any{
			"width":  width,
			"height": height,
		},
	}

	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "image/png").
		SetBody(payload).
		SetError(apiErr).
		Post("/screenshot")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", req.URL, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		if message == "" {
			message = strings.TrimSpace(resp.String())
		}
		return nil, fmt.Errorf("renderer api error: code=%d, message=%s", resp.StatusCode(), message)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("renderer returned an empty image for %s", req.URL)
	}
	return body, nil
}
