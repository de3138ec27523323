package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

const webhookErrorSnippet = 512

// webhookHeaders maps event attributes onto request headers so receivers can route without decoding the body.
var webhookHeaders = map[string]string{
	"endpoint_id": "X-Catalog-Endpoint",
	"kind":        "X-Catalog-Kind",
	"outcome":     "X-Catalog-Outcome",
	"revision":    "X-Catalog-Revision",
}

// webhookPublisher delivers fetch events to an HTTP endpoint.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	return &webhookPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		log:     logger.Ensure(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }
func (w *webhookPublisher) Close() error { return nil }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	env, err := evt.envelope()
	if err != nil {
		return err
	}

	req := w.client.R().
		SetContext(ctx).
		SetHeaders(w.headers).
		SetHeader("Content-Type", "application/json").
		SetHeader("Idempotency-Key", env.dedupKey).
		SetBody(env.body)
	for attr, header := range webhookHeaders {
		req.SetHeader(header, env.attrs[attr])
	}

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook %s %s: %w", w.method, w.url, err)
	}
	if resp.IsError() {
		body := resp.Body()
		if len(body) > webhookErrorSnippet {
			body = body[:webhookErrorSnippet]
		}
		return fmt.Errorf("webhook %s %s: status %d: %s", w.method, w.url, resp.StatusCode(), strings.TrimSpace(string(body)))
	}
	w.log.DebugObj("fetch event posted", "webhook_delivery", map[string]any{
		"publisher_id": w.id,
		"endpoint_id":  evt.EndpointID,
		"status":       resp.StatusCode(),
	})
	return nil
}
