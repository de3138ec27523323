package publishers

import (
	"context"
	"fmt"

	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
)

// Builder creates the publisher for one entry.
type Builder func(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error)

// Builders maps sink types to their constructors.
type Builders map[string]Builder

// DefaultBuilders knows every sink type this package implements.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	}
}

// Routes builds one route per entry, carrying the entry's filter.
// Publishers built before a failure are closed again.
func (b Builders) Routes(ctx context.Context, cfgs []Config, log logger.Logger) ([]Route, error) {
	log = logger.Ensure(log)
	routes := make([]Route, 0, len(cfgs))
	for _, cfg := range cfgs {
		build, ok := b[cfg.Type]
		if !ok {
			closeRoutes(routes)
			return nil, fmt.Errorf("publisher %q: no builder for type %q", cfg.ID, cfg.Type)
		}
		pub, err := build(ctx, cfg, log)
		if err != nil {
			closeRoutes(routes)
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		routes = append(routes, Route{Publisher: pub, Filter: cfg.Filter()})
	}
	return routes, nil
}

func closeRoutes(routes []Route) {
	for _, r := range routes {
		_ = r.Publisher.Close()
	}
}
