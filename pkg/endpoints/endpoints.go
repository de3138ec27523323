package endpoints

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-catalog-client/pkg/configfile"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// Package endpoints loads the set of remote collections the client binds to.

const (
	// Supported resource kinds.
	KindProducts = "products"
	KindPosts    = "posts"
)

// Endpoint is one remote collection declared in the endpoints file.
type Endpoint struct {
	ID      string         `json:"id" yaml:"id"`
	Kind    string         `json:"kind" yaml:"kind"`
	URL     string         `json:"url" yaml:"url"`
	Backend string         `json:"backend" yaml:"backend"`
	Params  map[string]any `json:"params" yaml:"params"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
}

type registryFile struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Registry holds validated endpoint definitions in file order.
type Registry struct {
	mu        sync.RWMutex
	endpoints []Endpoint
	idx       map[string]Endpoint
}

// LoadRegistry loads endpoint definitions from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	var parsed registryFile
	if err := configfile.Load(path, "endpoints", &parsed); err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Endpoints)
}

// NewRegistry validates eps and builds a registry from them.
func NewRegistry(eps []Endpoint) (*Registry, error) {
	if len(eps) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}

	reg := &Registry{
		endpoints: make([]Endpoint, len(eps)),
		idx:       make(map[string]Endpoint, len(eps)),
	}
	for i := range eps {
		ep := sanitizeEndpoint(eps[i])
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if _, exists := reg.idx[ep.ID]; exists {
			return nil, fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		reg.endpoints[i] = ep
		reg.idx[ep.ID] = ep
	}
	return reg, nil
}

func sanitizeEndpoint(ep Endpoint) Endpoint {
	ep.ID = strings.TrimSpace(ep.ID)
	ep.Kind = strings.ToLower(strings.TrimSpace(ep.Kind))
	ep.URL = strings.TrimSpace(ep.URL)
	ep.Backend = strings.ToLower(strings.TrimSpace(ep.Backend))

	if ep.Enabled == nil {
		def := true
		ep.Enabled = &def
	}
	return ep
}

func validateEndpoint(ep Endpoint) error {
	if ep.ID == "" {
		return errors.New("id is required")
	}
	switch ep.Kind {
	case "":
		return fmt.Errorf("kind is required for endpoint %q", ep.ID)
	case KindProducts, KindPosts:
	default:
		return fmt.Errorf("unsupported kind %q for endpoint %q", ep.Kind, ep.ID)
	}
	if ep.URL == "" {
		return fmt.Errorf("url is required for endpoint %q", ep.ID)
	}
	if ep.Backend != "" {
		if _, ok := httpclient.NormalizeBackend(ep.Backend); !ok {
			return fmt.Errorf("unsupported backend %q for endpoint %q", ep.Backend, ep.ID)
		}
	}
	return nil
}

// ByID returns the endpoint with id.
func (r *Registry) ByID(id string) (Endpoint, bool) {
	if r == nil {
		return Endpoint{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Endpoint{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.idx[id]
	return ep, ok
}

// All returns every configured endpoint.
func (r *Registry) All() []Endpoint {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Enabled returns the endpoints that are switched on.
func (r *Registry) Enabled() []Endpoint {
	all := r.All()
	out := make([]Endpoint, 0, len(all))
	for _, ep := range all {
		if ep.EnabledValue() {
			out = append(out, ep)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (ep Endpoint) EnabledValue() bool {
	if ep.Enabled == nil {
		return true
	}
	return *ep.Enabled
}

// BackendOr returns the endpoint's backend, or fallback when none is set.
func (ep Endpoint) BackendOr(fallback string) string {
	if ep.Backend != "" {
		return ep.Backend
	}
	return fallback
}

// QueryParams returns the endpoint params in the form the API service accepts.
func (ep Endpoint) QueryParams() httpclient.Params {
	if len(ep.Params) == 0 {
		return nil
	}
	out := make(httpclient.Params, len(ep.Params))
	for k, v := range ep.Params {
		out[k] = v
	}
	return out
}
