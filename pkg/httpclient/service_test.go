package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type product struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type productEnvelope struct {
	Products []product `json:"products"`
}

func backends() map[string]func(Options) Service {
	return map[string]func(Options) Service{
		BackendResty:   func(o Options) Service { return NewRestyService(o) },
		BackendNetHTTP: func(o Options) Service { return NewNetHTTPService(o) },
	}
}

func TestServiceGetDecodesEnvelope(t *testing.T) {
	t.Parallel()

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/products", r.URL.Path)
				_, _ = io.WriteString(w, `{"products":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`)
			}))
			defer srv.Close()

			var env productEnvelope
			err := build(Options{}).Get(context.Background(), srv.URL+"/products", nil, &env)
			require.NoError(t, err)
			assert.Equal(t, []product{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}, env.Products)
		})
	}
}

func TestServiceGetSendsParamsAsQuery(t *testing.T) {
	t.Parallel()

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				assert.Equal(t, "10", q.Get("limit"))
				assert.Equal(t, "true", q.Get("active"))
				assert.Equal(t, []string{"a", "b"}, q["tag"])
				assert.False(t, q.Has("skip"))
				_, _ = io.WriteString(w, `[]`)
			}))
			defer srv.Close()

			var out []product
			err := build(Options{}).Get(context.Background(), srv.URL, Params{
				"limit":  10,
				"active": true,
				"tag":    []string{"a", "b"},
				"skip":   nil,
			}, &out)
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestServiceGetMalformedJSONLeavesTargetUntouched(t *testing.T) {
	t.Parallel()

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"products":[{"id":1,"name":"A"},{"id":`)
			}))
			defer srv.Close()

			env := productEnvelope{Products: []product{{ID: 9, Name: "keep"}}}
			err := build(Options{}).Get(context.Background(), srv.URL, nil, &env)
			require.Error(t, err)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, []product{{ID: 9, Name: "keep"}}, env.Products)
		})
	}
}

func TestServiceGetRejectsNon2xx(t *testing.T) {
	t.Parallel()

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"products":[]}`)
			}))
			defer srv.Close()

			var env productEnvelope
			err := build(Options{}).Get(context.Background(), srv.URL, nil, &env)
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
			assert.Nil(t, env.Products)
		})
	}
}

func TestServiceGetWithoutValidationDecodesErrorBody(t *testing.T) {
	t.Parallel()

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"products":[{"id":3,"name":"C"}]}`)
			}))
			defer srv.Close()

			var env productEnvelope
			err := build(Options{DisableStatusValidation: true}).Get(context.Background(), srv.URL, nil, &env)
			require.NoError(t, err)
			assert.Len(t, env.Products, 1)
		})
	}
}

func TestServiceTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out []product
			err := build(Options{Timeout: time.Second}).Get(context.Background(), url, nil, &out)
			require.Error(t, err)

			var transportErr *TransportError
			assert.True(t, errors.As(err, &transportErr))
		})
	}
}

func TestServiceMutationsSendJSON(t *testing.T) {
	t.Parallel()

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			type seen struct {
				method string
				ctype  string
				body   product
				header string
			}
			calls := make(chan seen, 3)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s := seen{method: r.Method, ctype: r.Header.Get("Content-Type"), header: r.Header.Get("X-Demo")}
				if r.Body != nil {
					raw, _ := io.ReadAll(r.Body)
					if len(raw) > 0 {
						_ = json.Unmarshal(raw, &s.body)
					}
				}
				calls <- s
				w.WriteHeader(http.StatusCreated)
			}))
			defer srv.Close()

			svc := build(Options{Headers: map[string]string{"X-Demo": "1"}})
			ctx := context.Background()

			require.NoError(t, svc.Create(ctx, srv.URL, product{ID: 1, Name: "A"}))
			got := <-calls
			assert.Equal(t, http.MethodPost, got.method)
			assert.Equal(t, "application/json", got.ctype)
			assert.Equal(t, product{ID: 1, Name: "A"}, got.body)
			assert.Equal(t, "1", got.header)

			require.NoError(t, svc.Update(ctx, srv.URL+"/1", product{ID: 1, Name: "B"}))
			got = <-calls
			assert.Equal(t, http.MethodPut, got.method)
			assert.Equal(t, "B", got.body.Name)

			require.NoError(t, svc.Delete(ctx, srv.URL+"/1"))
			got = <-calls
			assert.Equal(t, http.MethodDelete, got.method)
		})
	}
}

func TestServicePayloadEncodingMatchesAcrossBackends(t *testing.T) {
	t.Parallel()

	type counter struct {
		A int `json:"a"`
	}
	payloads := map[string]any{
		"string":   `{"a":1}`,
		"bytes":    []byte(`{"a":1}`),
		"raw json": json.RawMessage(`{"a":1}`),
		"struct":   counter{A: 1},
		"map":      map[string]int{"a": 1},
	}

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			bodies := make(chan string, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				bodies <- string(raw)
				w.WriteHeader(http.StatusCreated)
			}))
			defer srv.Close()

			svc := build(Options{})
			for label, payload := range payloads {
				require.NoError(t, svc.Create(context.Background(), srv.URL, payload), label)
				assert.Equal(t, `{"a":1}`, <-bodies, label)
			}
		})
	}
}

func TestEncodePayloadRejectsUnsupportedValues(t *testing.T) {
	t.Parallel()

	_, err := encodePayload(make(chan int))
	require.Error(t, err)

	for name, build := range backends() {
		err := build(Options{}).Create(context.Background(), "http://127.0.0.1:1", func() {})
		var transportErr *TransportError
		assert.True(t, errors.As(err, &transportErr), name)
	}
}

func TestServiceMutationFailsOnNon2xx(t *testing.T) {
	t.Parallel()

	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", http.StatusBadRequest)
			}))
			defer srv.Close()

			err := build(Options{}).Delete(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	svc, err := New("", Options{})
	require.NoError(t, err)
	assert.IsType(t, &RestyService{}, svc)

	svc, err = New("NetHTTP", Options{})
	require.NoError(t, err)
	assert.IsType(t, &NetHTTPService{}, svc)

	_, err = New("curl", Options{})
	require.Error(t, err)
	_, ok := NormalizeBackend("curl")
	assert.False(t, ok)
}

func TestEncodeParamsRejectsUnsupportedValues(t *testing.T) {
	t.Parallel()

	_, err := encodeParams(Params{"filter": map[string]int{"a": 1}})
	require.Error(t, err)

	values, err := encodeParams(Params{"ids": []int{1, 2}, "q": "shoes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values["ids"])
	assert.Equal(t, "shoes", values.Get("q"))
}

func TestDecodeIntoRequiresPointer(t *testing.T) {
	t.Parallel()

	var out productEnvelope
	err := decodeInto("u", []byte(`{}`), out)
	require.Error(t, err)
	require.NoError(t, decodeInto("u", []byte(`garbage`), nil))
}

func TestOutcomeLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "transport_error", outcome(&TransportError{Err: errors.New("x")}))
	assert.Equal(t, "status_error", outcome(&StatusError{StatusCode: 500}))
	assert.Equal(t, "decode_error", outcome(&DecodeError{Err: errors.New("x")}))
	assert.Equal(t, "error", outcome(errors.New("other")))
}
