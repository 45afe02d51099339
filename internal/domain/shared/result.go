package shared

// Unit is the response of commands that produce no payload
type Unit struct{}

// Result is either a success carrying a value or a failure carrying an *Error.
// The zero Result is a success holding the zero value of T.
type Result[T any] struct {
	value T
	err   *Error
}

// Success wraps a value
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failure wraps an error. A nil error becomes an Unexpected failure so a
// Result is never "neither".
func Failure[T any](err *Error) Result[T] {
	if err == nil {
		err = Unexpected(nil)
	}
	return Result[T]{err: err}
}

// Fail normalizes a plain Go error through AsError before wrapping it
func Fail[T any](err error) Result[T] {
	return Failure[T](AsError(err))
}

// FromError builds a Result from the (value, error) pair returned by most Go APIs
func FromError[T any](value T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Success(value)
}

func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

func (r Result[T]) IsFailure() bool {
	return r.err != nil
}

// Value returns the success value, or an InvalidState error when r is a failure
func (r Result[T]) Value() (T, error) {
	if r.err != nil {
		var zero T
		return zero, InvalidState("value accessed on a failed result").WithCause(r.err)
	}
	return r.value, nil
}

// MustValue returns the success value and panics on a failure
func (r Result[T]) MustValue() T {
	v, err := r.Value()
	if err != nil {
		panic(err)
	}
	return v
}

// Error returns the failure, or nil on success
func (r Result[T]) Error() *Error {
	return r.err
}

// Unwrap converts back to Go's (value, error) convention
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Map transforms a success value; failures pass through untouched
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Success(f(r.value))
}

// Bind chains a Result-returning step; failures short-circuit
func Bind[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return f(r.value)
}

// Match folds a Result into a single value
func Match[T, U any](r Result[T], onSuccess func(T) U, onFailure func(*Error) U) U {
	if r.err != nil {
		return onFailure(r.err)
	}
	return onSuccess(r.value)
}
