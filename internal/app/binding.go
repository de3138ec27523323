package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/samvad-catalog-client/internal/domain"
	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
	"github.com/samvad-hq/samvad-catalog-client/internal/mainloop"
	"github.com/samvad-hq/samvad-catalog-client/internal/resource"
	"github.com/samvad-hq/samvad-catalog-client/internal/viewmodel"
	"github.com/samvad-hq/samvad-catalog-client/pkg/endpoints"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// report is one applied fetch, handed from the main loop to the reporter goroutine.
type report struct {
	EndpointID string
	Kind       string
	Revision   uint64
	Count      int
	Err        string
	Items      json.RawMessage
}

// binding ties one endpoint to its view-model.
type binding interface {
	Endpoint() endpoints.Endpoint
	Refresh(ctx context.Context)
	Watch(out chan<- report) bool
}

type listBinding[T domain.Resource] struct {
	ep  endpoints.Endpoint
	vm  *viewmodel.ListViewModel[T]
	log logger.Logger

	// last is only touched on the loop goroutine.
	last uint64
}

func newBinding(ep endpoints.Endpoint, api httpclient.Service, loop *mainloop.Loop, log logger.Logger) (binding, error) {
	switch ep.Kind {
	case endpoints.KindProducts:
		svc := resource.NewProductService(api, ep.URL, ep.QueryParams())
		return newListBinding[domain.Product](ep, svc, loop, log), nil
	case endpoints.KindPosts:
		svc := resource.NewPostService(api, ep.URL, ep.QueryParams())
		return newListBinding[domain.Post](ep, svc, loop, log), nil
	default:
		return nil, fmt.Errorf("endpoint %s: unsupported kind %q", ep.ID, ep.Kind)
	}
}

func newListBinding[T domain.Resource](ep endpoints.Endpoint, source resource.Lister[T], loop *mainloop.Loop, log logger.Logger) *listBinding[T] {
	log = logger.Ensure(log)
	return &listBinding[T]{
		ep:  ep,
		vm:  viewmodel.NewListViewModel[T](ep.ID, source, loop, log),
		log: log,
	}
}

func (b *listBinding[T]) Endpoint() endpoints.Endpoint { return b.ep }

func (b *listBinding[T]) Refresh(ctx context.Context) { b.vm.Fetch(ctx) }

// Watch forwards every applied fetch to out. Selection and alert changes are not reported.
// A full channel drops the report rather than stalling the loop.
func (b *listBinding[T]) Watch(out chan<- report) bool {
	return b.vm.Subscribe(func(st viewmodel.State[T]) {
		if st.Revision == b.last {
			return
		}
		b.last = st.Revision

		r := report{
			EndpointID: b.ep.ID,
			Kind:       b.ep.Kind,
			Revision:   st.Revision,
		}
		if st.HasError {
			// st.Items still holds the previous collection.
			r.Err = st.Message
		} else {
			r.Count = len(st.Items)
			items, err := json.Marshal(st.Items)
			if err != nil {
				b.log.ErrorObj("encode snapshot items failed", "error", err)
			} else {
				r.Items = items
			}
		}

		select {
		case out <- r:
		default:
			b.log.WarnObj("reporter busy; dropping fetch report", "report_meta", map[string]any{
				"endpoint_id": r.EndpointID,
				"revision":    r.Revision,
			})
		}
	})
}
