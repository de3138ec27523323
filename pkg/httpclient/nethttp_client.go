package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// NetHTTPService implements Service directly on net/http.
type NetHTTPService struct {
	client   *http.Client
	headers  map[string]string
	validate bool
}

// NewNetHTTPService creates a Service backed by the standard library client.
func NewNetHTTPService(opts Options) *NetHTTPService {
	opts = normalizeOptions(opts)
	return &NetHTTPService{
		client:   &http.Client{Timeout: opts.Timeout},
		headers:  opts.Headers,
		validate: !opts.DisableStatusValidation,
	}
}

// Get performs a GET and decodes the JSON response into out.
func (n *NetHTTPService) Get(ctx context.Context, endpoint string, params Params, out any) (err error) {
	start := time.Now()
	defer func() { observeRequest(BackendNetHTTP, http.MethodGet, start, err) }()

	query, err := encodeParams(params)
	if err != nil {
		return &TransportError{Method: http.MethodGet, URL: endpoint, Err: err}
	}
	body, err := n.do(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return decodeInto(endpoint, body, out)
}

// Create POSTs payload as JSON.
func (n *NetHTTPService) Create(ctx context.Context, endpoint string, payload any) (err error) {
	start := time.Now()
	defer func() { observeRequest(BackendNetHTTP, http.MethodPost, start, err) }()

	_, err = n.do(ctx, http.MethodPost, endpoint, nil, payload)
	return err
}

// Update PUTs payload as JSON.
func (n *NetHTTPService) Update(ctx context.Context, endpoint string, payload any) (err error) {
	start := time.Now()
	defer func() { observeRequest(BackendNetHTTP, http.MethodPut, start, err) }()

	_, err = n.do(ctx, http.MethodPut, endpoint, nil, payload)
	return err
}

// Delete issues a DELETE against endpoint.
func (n *NetHTTPService) Delete(ctx context.Context, endpoint string) (err error) {
	start := time.Now()
	defer func() { observeRequest(BackendNetHTTP, http.MethodDelete, start, err) }()

	_, err = n.do(ctx, http.MethodDelete, endpoint, nil, nil)
	return err
}

func (n *NetHTTPService) do(ctx context.Context, method, endpoint string, query url.Values, payload any) ([]byte, error) {
	target, err := withQuery(endpoint, query)
	if err != nil {
		return nil, &TransportError{Method: method, URL: endpoint, Err: err}
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := encodePayload(payload)
		if err != nil {
			return nil, &TransportError{Method: method, URL: endpoint, Err: err}
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, &TransportError{Method: method, URL: endpoint, Err: err}
	}
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	if err := checkStatus(method, endpoint, resp.StatusCode, body, n.validate); err != nil {
		return nil, err
	}
	return body, nil
}

func withQuery(endpoint string, query url.Values) (string, error) {
	if len(query) == 0 {
		return endpoint, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
