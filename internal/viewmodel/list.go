package viewmodel

import (
	"context"

	"github.com/samvad-hq/samvad-catalog-client/internal/domain"
	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
	"github.com/samvad-hq/samvad-catalog-client/internal/mainloop"
	"github.com/samvad-hq/samvad-catalog-client/internal/resource"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// State is the observable state of a list view-model.
type State[T domain.Resource] struct {
	Items     []T
	Selected  *T
	HasError  bool
	ShowAlert bool
	Message   string
	// Revision counts fetch completions applied so far, successful or not.
	Revision uint64
}

// ListViewModel holds a fetched collection for display. Its state is owned by the main loop:
// every read and write happens on the loop goroutine.
type ListViewModel[T domain.Resource] struct {
	name   string
	source resource.Lister[T]
	loop   *mainloop.Loop
	log    logger.Logger

	state       State[T]
	subscribers []func(State[T])
}

// NewListViewModel binds a view-model to source. Completions are marshaled onto loop.
func NewListViewModel[T domain.Resource](name string, source resource.Lister[T], loop *mainloop.Loop, log logger.Logger) *ListViewModel[T] {
	return &ListViewModel[T]{
		name:   name,
		source: source,
		loop:   loop,
		log:    logger.Ensure(log),
	}
}

// Name identifies the view-model in logs.
func (vm *ListViewModel[T]) Name() string { return vm.name }

// Fetch starts a fetch and returns immediately. Outstanding fetches are not cancelled, so when
// several overlap the one that completes last determines the held collection.
func (vm *ListViewModel[T]) Fetch(ctx context.Context) {
	vm.source.FetchAll(ctx, func(res httpclient.Result[[]T]) {
		if !vm.loop.Post(func() { vm.apply(res) }) {
			vm.log.WarnObj("fetch completed after main loop stopped", "view_model", vm.name)
		}
	})
}

// Subscribe registers fn to receive a copy of the state after every change. fn runs on the loop.
func (vm *ListViewModel[T]) Subscribe(fn func(State[T])) bool {
	if fn == nil {
		return false
	}
	return vm.loop.Post(func() { vm.subscribers = append(vm.subscribers, fn) })
}

// Snapshot returns a copy of the current state.
func (vm *ListViewModel[T]) Snapshot(ctx context.Context) (State[T], error) {
	var out State[T]
	err := vm.loop.Call(ctx, func() { out = vm.copyState() })
	return out, err
}

// Select marks the item with id as selected. It reports false if no held item has that id.
func (vm *ListViewModel[T]) Select(ctx context.Context, id int) (bool, error) {
	var found bool
	err := vm.loop.Call(ctx, func() {
		for i := range vm.state.Items {
			if vm.state.Items[i].ResourceID() == id {
				item := vm.state.Items[i]
				vm.state.Selected = &item
				found = true
				vm.publish()
				return
			}
		}
	})
	return found, err
}

// ClearSelection drops the current selection.
func (vm *ListViewModel[T]) ClearSelection(ctx context.Context) error {
	return vm.loop.Call(ctx, func() {
		if vm.state.Selected == nil {
			return
		}
		vm.state.Selected = nil
		vm.publish()
	})
}

// DismissAlert hides the alert while keeping the error flag and message.
func (vm *ListViewModel[T]) DismissAlert(ctx context.Context) error {
	return vm.loop.Call(ctx, func() {
		if !vm.state.ShowAlert {
			return
		}
		vm.state.ShowAlert = false
		vm.publish()
	})
}

func (vm *ListViewModel[T]) apply(res httpclient.Result[[]T]) {
	vm.state.Revision++

	if res.Err != nil {
		vm.log.ErrorObj("fetch failed", "fetch_error", map[string]any{
			"view_model": vm.name,
			"error":      res.Err.Error(),
		})
		vm.state.HasError = true
		vm.state.ShowAlert = true
		vm.state.Message = res.Err.Error()
		vm.publish()
		return
	}

	vm.state.Items = append([]T(nil), res.Value...)
	vm.state.HasError = false
	vm.state.ShowAlert = false
	vm.state.Message = ""
	vm.state.Selected = vm.reselect()

	vm.log.DebugObj("fetch applied", "fetch_result", map[string]any{
		"view_model": vm.name,
		"count":      len(vm.state.Items),
		"revision":   vm.state.Revision,
	})
	vm.publish()
}

// reselect keeps the selection pointing at the item with the same id in the new collection.
func (vm *ListViewModel[T]) reselect() *T {
	if vm.state.Selected == nil {
		return nil
	}
	id := (*vm.state.Selected).ResourceID()
	for i := range vm.state.Items {
		if vm.state.Items[i].ResourceID() == id {
			item := vm.state.Items[i]
			return &item
		}
	}
	return nil
}

func (vm *ListViewModel[T]) publish() {
	for _, fn := range vm.subscribers {
		fn(vm.copyState())
	}
}

func (vm *ListViewModel[T]) copyState() State[T] {
	out := vm.state
	if vm.state.Items != nil {
		out.Items = append([]T(nil), vm.state.Items...)
	}
	if vm.state.Selected != nil {
		sel := *vm.state.Selected
		out.Selected = &sel
	}
	return out
}
