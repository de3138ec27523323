package resource

import (
	"context"

	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// Lister fetches a whole collection and reports it through a single completion.
type Lister[T any] interface {
	FetchAll(ctx context.Context, done func(httpclient.Result[[]T]))
}

func deliver[T any](done func(httpclient.Result[[]T]), res httpclient.Result[[]T]) {
	if done != nil {
		done(res)
	}
}
