package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Publisher sends events to a downstream sink (HTTP, SQS, SNS, Pub/Sub).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Route pairs a publisher with the filter deciding which events reach it.
type Route struct {
	Publisher Publisher
	Filter    Filter
}

// Delivery summarises one Fanout.Publish call.
type Delivery struct {
	// Matched counts routes whose filter accepted the event.
	Matched int
	// Delivered counts matched routes whose publisher succeeded.
	Delivered int
}

// Fanout delivers each event to every route whose filter matches it.
type Fanout struct {
	routes []Route
}

// NewFanout returns a fanout over routes, skipping routes without a publisher.
func NewFanout(routes ...Route) *Fanout {
	f := &Fanout{}
	for _, r := range routes {
		if r.Publisher != nil {
			f.routes = append(f.routes, r)
		}
	}
	return f
}

// Publish sends evt to the matching routes concurrently and waits for all of them.
// Failures are joined in route order.
func (f *Fanout) Publish(ctx context.Context, evt Event) (Delivery, error) {
	var d Delivery
	if f == nil {
		return d, nil
	}

	errs := make([]error, len(f.routes))
	var wg sync.WaitGroup
	for i, r := range f.routes {
		if !r.Filter.Match(evt) {
			continue
		}
		d.Matched++
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Publisher.Publish(ctx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher %s: %w", r.Publisher.Type(), r.Publisher.ID(), err)
			}
		}()
	}
	wg.Wait()

	d.Delivered = d.Matched
	for _, err := range errs {
		if err != nil {
			d.Delivered--
		}
	}
	return d, errors.Join(errs...)
}

// Close closes every publisher and joins their errors.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, r := range f.routes {
		if err := r.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher %s: %w", r.Publisher.Type(), r.Publisher.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Size returns the number of routes.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.routes)
}
