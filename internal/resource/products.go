package resource

import (
	"context"

	"github.com/samvad-hq/samvad-catalog-client/internal/domain"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// ProductService binds the products endpoint to an API service and unwraps its envelope.
type ProductService struct {
	api      httpclient.Service
	endpoint string
	params   httpclient.Params
}

// NewProductService wires a product service onto api. params are sent with every fetch.
func NewProductService(api httpclient.Service, endpoint string, params httpclient.Params) *ProductService {
	return &ProductService{api: api, endpoint: endpoint, params: params}
}

// Endpoint returns the URL the service is bound to.
func (s *ProductService) Endpoint() string { return s.endpoint }

// GetAllProducts fetches the collection asynchronously. Errors from the API service are forwarded as-is.
func (s *ProductService) GetAllProducts(ctx context.Context, done func(httpclient.Result[[]domain.Product])) {
	httpclient.GetAsync(ctx, s.api, s.endpoint, s.params, func(res httpclient.Result[domain.ProductResponse]) {
		if res.Err != nil {
			deliver(done, httpclient.Failure[[]domain.Product](res.Err))
			return
		}
		deliver(done, httpclient.Success(res.Value.Products))
	})
}

// ListProducts is the blocking form of GetAllProducts.
func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	resp, err := httpclient.Fetch[domain.ProductResponse](ctx, s.api, s.endpoint, s.params)
	if err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// FetchAll implements Lister.
func (s *ProductService) FetchAll(ctx context.Context, done func(httpclient.Result[[]domain.Product])) {
	s.GetAllProducts(ctx, done)
}
