package httpclient

import "context"

// Params are optional request parameters sent as the query string of a GET.
type Params map[string]any

// Service is the generic API capability shared by every backend.
// Get decodes the response body into out; the remaining verbs only report success or failure.
type Service interface {
	Get(ctx context.Context, endpoint string, params Params, out any) error
	Create(ctx context.Context, endpoint string, payload any) error
	Update(ctx context.Context, endpoint string, payload any) error
	Delete(ctx context.Context, endpoint string) error
}
