package resource

import (
	"context"
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-catalog-client/internal/domain"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// PostService binds the posts collection endpoint. Unlike products, posts are served as a bare array.
type PostService struct {
	api      httpclient.Service
	endpoint string
	params   httpclient.Params
}

// NewPostService wires a post service onto api.
func NewPostService(api httpclient.Service, endpoint string, params httpclient.Params) *PostService {
	return &PostService{api: api, endpoint: strings.TrimRight(endpoint, "/"), params: params}
}

// Endpoint returns the collection URL.
func (s *PostService) Endpoint() string { return s.endpoint }

// GetAllPosts fetches the collection asynchronously.
func (s *PostService) GetAllPosts(ctx context.Context, done func(httpclient.Result[[]domain.Post])) {
	httpclient.GetAsync(ctx, s.api, s.endpoint, s.params, func(res httpclient.Result[[]domain.Post]) {
		deliver(done, res)
	})
}

// ListPosts is the blocking form of GetAllPosts.
func (s *PostService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return httpclient.Fetch[[]domain.Post](ctx, s.api, s.endpoint, s.params)
}

// CreatePost POSTs post to the collection.
func (s *PostService) CreatePost(ctx context.Context, post domain.Post, done func(error)) {
	httpclient.CreateAsync(ctx, s.api, s.endpoint, post, done)
}

// UpdatePost PUTs post to its item URL.
func (s *PostService) UpdatePost(ctx context.Context, post domain.Post, done func(error)) {
	httpclient.UpdateAsync(ctx, s.api, s.itemEndpoint(post.ID), post, done)
}

// DeletePost removes the post with id.
func (s *PostService) DeletePost(ctx context.Context, id int, done func(error)) {
	httpclient.DeleteAsync(ctx, s.api, s.itemEndpoint(id), done)
}

// FetchAll implements Lister.
func (s *PostService) FetchAll(ctx context.Context, done func(httpclient.Result[[]domain.Post])) {
	s.GetAllPosts(ctx, done)
}

func (s *PostService) itemEndpoint(id int) string {
	return s.endpoint + "/" + strconv.Itoa(id)
}
