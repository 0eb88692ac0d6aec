package incident

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/vigil/internal/buildinfo"
	"github.com/darmiel/vigil/internal/core"
)

var _ core.IncidentSink = (*WebhookSink)(nil)

const defaultWebhookTimeout = 5 * time.Second

type webhookOptions struct {
	URL string `mapstructure:"url"`

	// TimeoutSeconds bounds a single delivery attempt.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`

	// AuthToken, if set, is sent as a bearer token.
	AuthToken string `mapstructure:"auth_token"`
}

// WebhookSink POSTs incident events as JSON to an external endpoint, e.g. the
// incident-response orchestrator.
type WebhookSink struct {
	url       string
	authToken string
	client    *http.Client
}

func NewWebhookSink(options map[string]any) (*WebhookSink, error) {
	var opts webhookOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("decoding webhook options: %w", err)
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("webhook sink requires a url")
	}

	timeout := defaultWebhookTimeout
	if opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}

	return &WebhookSink{
		url:       opts.URL,
		authToken: opts.AuthToken,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (s *WebhookSink) Name() string {
	return "webhook"
}

func (s *WebhookSink) Notify(ctx context.Context, event core.IncidentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding incident event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building incident request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Vigil/"+buildinfo.Version)
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering incident event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("incident endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
