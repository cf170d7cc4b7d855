package usecase

// Result holds either a value or the error that prevented it. Per-item work
// collects Results so one item's failure never aborts the others.
type Result[T any] struct {
	Value T
	Err   error
}

// OK wraps a value.
func OK[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail wraps an error.
func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// Successes returns the values of results without an error, in order.
func Successes[T any](rs []Result[T]) []T {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Failures returns the errors, in order.
func Failures[T any](rs []Result[T]) []error {
	var out []error
	for _, r := range rs {
		if r.Err != nil {
			out = append(out, r.Err)
		}
	}
	return out
}
