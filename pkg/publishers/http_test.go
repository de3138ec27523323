package publishers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookConfig(url string) Config {
	cfg := Config{ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{
		URL:     url,
		Method:  "put",
		Headers: map[string]string{"Authorization": "Bearer t"},
	}}
	cfg.normalize()
	return cfg
}

func TestWebhookPublisherPostsEvent(t *testing.T) {
	t.Parallel()

	type seen struct {
		method string
		header http.Header
		body   []byte
	}
	requests := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- seen{method: r.Method, header: r.Header.Clone(), body: body}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), webhookConfig(srv.URL), nil)
	require.NoError(t, err)
	defer pub.Close()

	evt := NewEvent("posts", "posts", 0, 3, "GET /posts: status 500")
	require.NoError(t, pub.Publish(context.Background(), evt))

	got := <-requests
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "Bearer t", got.header.Get("Authorization"))
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "posts", got.header.Get("X-Catalog-Endpoint"))
	assert.Equal(t, OutcomeFailure, got.header.Get("X-Catalog-Outcome"))
	assert.Equal(t, "3", got.header.Get("X-Catalog-Revision"))
	assert.NotEmpty(t, got.header.Get("Idempotency-Key"))

	var decoded Event
	require.NoError(t, json.Unmarshal(got.body, &decoded))
	assert.Equal(t, evt.EndpointID, decoded.EndpointID)
	assert.Equal(t, evt.Error, decoded.Error)
	assert.Equal(t, uint64(3), decoded.Revision)
}

func TestWebhookPublisherFailsOnErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), webhookConfig(srv.URL), nil)
	require.NoError(t, err)

	err = pub.Publish(context.Background(), NewEvent("products", "products", 1, 1, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "nope")
}
