package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyService implements Service on top of resty.Client.
type RestyService struct {
	client   *resty.Client
	validate bool
}

// NewRestyService creates a resty-backed Service.
func NewRestyService(opts Options) *RestyService {
	opts = normalizeOptions(opts)
	c := newRestyBaseClient(opts.Timeout)
	if len(opts.Headers) > 0 {
		c.SetHeaders(opts.Headers)
	}
	return &RestyService{client: c, validate: !opts.DisableStatusValidation}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Get performs a GET and decodes the JSON response into out.
func (r *RestyService) Get(ctx context.Context, endpoint string, params Params, out any) (err error) {
	start := time.Now()
	defer func() { observeRequest(BackendResty, http.MethodGet, start, err) }()

	query, err := encodeParams(params)
	if err != nil {
		return &TransportError{Method: http.MethodGet, URL: endpoint, Err: err}
	}
	resp, err := r.do(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return decodeInto(endpoint, resp.Body(), out)
}

// Create POSTs payload as JSON.
func (r *RestyService) Create(ctx context.Context, endpoint string, payload any) (err error) {
	start := time.Now()
	defer func() { observeRequest(BackendResty, http.MethodPost, start, err) }()

	_, err = r.do(ctx, http.MethodPost, endpoint, nil, payload)
	return err
}

// Update PUTs payload as JSON.
func (r *RestyService) Update(ctx context.Context, endpoint string, payload any) (err error) {
	start := time.Now()
	defer func() { observeRequest(BackendResty, http.MethodPut, start, err) }()

	_, err = r.do(ctx, http.MethodPut, endpoint, nil, payload)
	return err
}

// Delete issues a DELETE against endpoint.
func (r *RestyService) Delete(ctx context.Context, endpoint string) (err error) {
	start := time.Now()
	defer func() { observeRequest(BackendResty, http.MethodDelete, start, err) }()

	_, err = r.do(ctx, http.MethodDelete, endpoint, nil, nil)
	return err
}

func (r *RestyService) do(ctx context.Context, method, endpoint string, query url.Values, payload any) (*resty.Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if payload != nil {
		raw, err := encodePayload(payload)
		if err != nil {
			return nil, &TransportError{Method: method, URL: endpoint, Err: err}
		}
		req.SetHeader("Content-Type", "application/json").SetBody(raw)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, &TransportError{Method: method, URL: endpoint, Err: err}
	}
	if err := checkStatus(method, endpoint, resp.StatusCode(), resp.Body(), r.validate); err != nil {
		return nil, err
	}
	return resp, nil
}
