// Package fn holds the small generic helpers shared by the proxy: a Result
// type for stage-style calls, slice utilities, bounded fan-out and retry.
package fn

// Result carries either a value or an error.
type Result[T any] struct {
	val T
	err error
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] { return Result[T]{val: v} }

// Err creates a failed Result. A nil err still marks the Result as failed.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = errNilFailure
	}
	return Result[T]{err: err}
}

// FromPair lifts a (value, error) return into a Result.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool  { return r.err == nil }
func (r Result[T]) IsErr() bool { return r.err != nil }

// Unwrap returns the value and the error. The value is zero on failure.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// UnwrapOr returns the value, or fallback on failure.
func (r Result[T]) UnwrapOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.val
}

type nilFailure struct{}

func (nilFailure) Error() string { return "fn: failed without an error" }

var errNilFailure error = nilFailure{}
