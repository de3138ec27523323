package viewmodel

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-catalog-client/internal/domain"
	"github.com/samvad-hq/samvad-catalog-client/internal/mainloop"
	"github.com/samvad-hq/samvad-catalog-client/internal/resource"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// manualLister parks every completion until the test releases it.
type manualLister struct {
	mu      sync.Mutex
	pending []func(httpclient.Result[[]domain.Product])
	issued  chan struct{}
}

func newManualLister() *manualLister {
	return &manualLister{issued: make(chan struct{}, 16)}
}

func (m *manualLister) FetchAll(_ context.Context, done func(httpclient.Result[[]domain.Product])) {
	m.mu.Lock()
	m.pending = append(m.pending, done)
	m.mu.Unlock()
	m.issued <- struct{}{}
}

func (m *manualLister) complete(i int, res httpclient.Result[[]domain.Product]) {
	m.mu.Lock()
	done := m.pending[i]
	m.mu.Unlock()
	done(res)
}

func runLoop(t *testing.T) *mainloop.Loop {
	t.Helper()
	loop := mainloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return loop
}

// waitRevision blocks until the view-model has applied rev fetch completions.
func waitRevision(t *testing.T, states <-chan State[domain.Product], rev uint64) State[domain.Product] {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-states:
			if st.Revision >= rev {
				return st
			}
		case <-deadline:
			t.Fatalf("revision %d never reached", rev)
		}
	}
}

func subscribe(t *testing.T, vm *ListViewModel[domain.Product]) <-chan State[domain.Product] {
	t.Helper()
	ch := make(chan State[domain.Product], 32)
	require.True(t, vm.Subscribe(func(st State[domain.Product]) { ch <- st }))
	return ch
}

func TestFetchReplacesCollection(t *testing.T) {
	t.Parallel()

	loop := runLoop(t)
	lister := newManualLister()
	vm := NewListViewModel[domain.Product]("products", lister, loop, nil)
	states := subscribe(t, vm)

	vm.Fetch(context.Background())
	<-lister.issued
	lister.complete(0, httpclient.Success([]domain.Product{{ID: 1, Name: "A"}}))

	st := waitRevision(t, states, 1)
	assert.Equal(t, []domain.Product{{ID: 1, Name: "A"}}, st.Items)
	assert.False(t, st.HasError)
}

// Overlapping fetches are not cancelled: whichever completes last wins, even if it was issued first.
func TestConcurrentFetchesLastCompletedWins(t *testing.T) {
	t.Parallel()

	loop := runLoop(t)
	lister := newManualLister()
	vm := NewListViewModel[domain.Product]("products", lister, loop, nil)
	states := subscribe(t, vm)

	vm.Fetch(context.Background())
	vm.Fetch(context.Background())
	<-lister.issued
	<-lister.issued

	first := []domain.Product{{ID: 1, Name: "first"}}
	second := []domain.Product{{ID: 2, Name: "second"}}

	lister.complete(1, httpclient.Success(second))
	lister.complete(0, httpclient.Success(first))

	st := waitRevision(t, states, 2)
	assert.Equal(t, first, st.Items)

	snap, err := vm.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, snap.Items)
}

func TestFetchFailureKeepsCollectionAndRaisesAlert(t *testing.T) {
	t.Parallel()

	loop := runLoop(t)
	lister := newManualLister()
	vm := NewListViewModel[domain.Product]("products", lister, loop, nil)
	states := subscribe(t, vm)

	vm.Fetch(context.Background())
	<-lister.issued
	lister.complete(0, httpclient.Success([]domain.Product{{ID: 1, Name: "A"}}))
	waitRevision(t, states, 1)

	vm.Fetch(context.Background())
	<-lister.issued
	lister.complete(1, httpclient.Failure[[]domain.Product](errors.New("server exploded")))

	st := waitRevision(t, states, 2)
	assert.Equal(t, []domain.Product{{ID: 1, Name: "A"}}, st.Items)
	assert.True(t, st.HasError)
	assert.True(t, st.ShowAlert)
	assert.Equal(t, "server exploded", st.Message)

	require.NoError(t, vm.DismissAlert(context.Background()))
	snap, err := vm.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.ShowAlert)
	assert.True(t, snap.HasError)
}

func TestServerErrorLeavesCollectionUnchanged(t *testing.T) {
	t.Parallel()

	var fail bool
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"products":[{"id":1,"name":"A"}]}`)
	}))
	defer srv.Close()

	loop := runLoop(t)
	svc := resource.NewProductService(httpclient.NewNetHTTPService(httpclient.Options{}), srv.URL, nil)
	vm := NewListViewModel[domain.Product]("products", svc, loop, nil)
	states := subscribe(t, vm)

	vm.Fetch(context.Background())
	st := waitRevision(t, states, 1)
	require.Equal(t, []domain.Product{{ID: 1, Name: "A"}}, st.Items)

	mu.Lock()
	fail = true
	mu.Unlock()

	vm.Fetch(context.Background())
	st = waitRevision(t, states, 2)
	assert.Equal(t, []domain.Product{{ID: 1, Name: "A"}}, st.Items)
	assert.True(t, st.HasError)
	assert.Contains(t, st.Message, "500")
}

func TestSelectionFollowsReplacedCollection(t *testing.T) {
	t.Parallel()

	loop := runLoop(t)
	lister := newManualLister()
	vm := NewListViewModel[domain.Product]("products", lister, loop, nil)
	states := subscribe(t, vm)
	ctx := context.Background()

	vm.Fetch(ctx)
	<-lister.issued
	lister.complete(0, httpclient.Success([]domain.Product{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}))
	waitRevision(t, states, 1)

	ok, err := vm.Select(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = vm.Select(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	vm.Fetch(ctx)
	<-lister.issued
	lister.complete(1, httpclient.Success([]domain.Product{{ID: 2, Name: "B2"}}))
	st := waitRevision(t, states, 2)
	require.NotNil(t, st.Selected)
	assert.Equal(t, "B2", st.Selected.Name)

	vm.Fetch(ctx)
	<-lister.issued
	lister.complete(2, httpclient.Success([]domain.Product{{ID: 3, Name: "C"}}))
	st = waitRevision(t, states, 3)
	assert.Nil(t, st.Selected)

	ok, err = vm.Select(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, vm.ClearSelection(ctx))
	snap, err := vm.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Selected)
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	loop := runLoop(t)
	lister := newManualLister()
	vm := NewListViewModel[domain.Product]("products", lister, loop, nil)
	states := subscribe(t, vm)

	vm.Fetch(context.Background())
	<-lister.issued
	lister.complete(0, httpclient.Success([]domain.Product{{ID: 1, Name: "A"}}))
	waitRevision(t, states, 1)

	snap, err := vm.Snapshot(context.Background())
	require.NoError(t, err)
	snap.Items[0].Name = "mutated"

	again, err := vm.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", again.Items[0].Name)
}
