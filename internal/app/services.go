package app

import (
	"fmt"
	"sync"

	"github.com/samvad-hq/samvad-catalog-client/internal/config"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// NewAPIService builds an API service for backend using the configured timeout and status policy.
func NewAPIService(cfg *config.Config, backend string) (httpclient.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if backend == "" {
		backend = cfg.HTTPBackend
	}
	return httpclient.New(backend, httpclient.Options{
		Timeout:                 cfg.HTTPTimeout,
		DisableStatusValidation: !cfg.HTTPValidateStatus,
	})
}

// serviceCache hands out one API service per backend.
type serviceCache struct {
	cfg *config.Config

	mu       sync.Mutex
	services map[string]httpclient.Service
}

func newServiceCache(cfg *config.Config) *serviceCache {
	return &serviceCache{cfg: cfg, services: make(map[string]httpclient.Service)}
}

func (c *serviceCache) get(backend string) (httpclient.Service, error) {
	if backend == "" {
		backend = c.cfg.HTTPBackend
	}
	name, ok := httpclient.NormalizeBackend(backend)
	if !ok {
		return nil, fmt.Errorf("unknown http backend %q", backend)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if svc, ok := c.services[name]; ok {
		return svc, nil
	}
	svc, err := NewAPIService(c.cfg, name)
	if err != nil {
		return nil, err
	}
	c.services[name] = svc
	return svc, nil
}

func (c *serviceCache) backends() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.services))
	for name := range c.services {
		out = append(out, name)
	}
	return out
}
