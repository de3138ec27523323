package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

const (
	// Supported backends.
	BackendResty   = "resty"
	BackendNetHTTP = "nethttp"

	defaultTimeout = 15 * time.Second
)

// Options configures a Service backend.
type Options struct {
	Timeout time.Duration
	Headers map[string]string
	// DisableStatusValidation makes non-2xx responses flow through the decode path instead of failing.
	DisableStatusValidation bool
}

// New builds the Service for the named backend. An empty name selects resty.
func New(backend string, opts Options) (Service, error) {
	name, ok := NormalizeBackend(backend)
	if !ok {
		return nil, fmt.Errorf("unsupported http backend %q", backend)
	}
	if name == BackendNetHTTP {
		return NewNetHTTPService(opts), nil
	}
	return NewRestyService(opts), nil
}

// NormalizeBackend maps a configured backend name onto a supported backend.
func NormalizeBackend(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendResty:
		return BackendResty, true
	case BackendNetHTTP, "net/http", "http":
		return BackendNetHTTP, true
	default:
		return "", false
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return opts
}

// encodePayload renders a request body. Strings and byte slices are sent as-is so
// callers can pass pre-encoded JSON; any other value is marshalled.
func encodePayload(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		return raw, nil
	}
}

func isSuccess(code int) bool { return code >= 200 && code <= 299 }

func checkStatus(method, url string, code int, body []byte, validate bool) error {
	if !validate || isSuccess(code) {
		return nil
	}
	return &StatusError{Method: method, URL: url, StatusCode: code, Body: bodySnippet(body)}
}

// decodeInto unmarshals body into a fresh value and only assigns it to out on success.
func decodeInto(url string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &DecodeError{URL: url, Err: errors.New("decode target must be a non-nil pointer")}
	}

	fresh := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(body, fresh.Interface()); err != nil {
		return &DecodeError{URL: url, Err: err}
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}
