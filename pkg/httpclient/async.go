package httpclient

import "context"

// Result carries either a decoded value or the error that prevented it.
type Result[T any] struct {
	Value T
	Err   error
}

// Success wraps a decoded value.
func Success[T any](v T) Result[T] { return Result[T]{Value: v} }

// Failure wraps an error; the value is always the zero value.
func Failure[T any](err error) Result[T] { return Result[T]{Err: err} }

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool { return r.Err == nil }

// Unwrap returns the value and error as a pair.
func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Err }

// Fetch performs a typed GET through svc.
func Fetch[T any](ctx context.Context, svc Service, endpoint string, params Params) (T, error) {
	var out T
	if err := svc.Get(ctx, endpoint, params, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// GetAsync runs a typed GET off the caller's goroutine and invokes done exactly once.
// done runs on the worker goroutine; callers owning state must marshal it themselves.
func GetAsync[T any](ctx context.Context, svc Service, endpoint string, params Params, done func(Result[T])) {
	go func() {
		v, err := Fetch[T](ctx, svc, endpoint, params)
		if done == nil {
			return
		}
		if err != nil {
			done(Failure[T](err))
			return
		}
		done(Success(v))
	}()
}

// CreateAsync runs Create off the caller's goroutine and invokes done exactly once.
func CreateAsync(ctx context.Context, svc Service, endpoint string, payload any, done func(error)) {
	go complete(done, func() error { return svc.Create(ctx, endpoint, payload) })
}

// UpdateAsync runs Update off the caller's goroutine and invokes done exactly once.
func UpdateAsync(ctx context.Context, svc Service, endpoint string, payload any, done func(error)) {
	go complete(done, func() error { return svc.Update(ctx, endpoint, payload) })
}

// DeleteAsync runs Delete off the caller's goroutine and invokes done exactly once.
func DeleteAsync(ctx context.Context, svc Service, endpoint string, done func(error)) {
	go complete(done, func() error { return svc.Delete(ctx, endpoint) })
}

func complete(done func(error), call func() error) {
	err := call()
	if done != nil {
		done(err)
	}
}
