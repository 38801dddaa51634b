package mealdb

// Status distinguishes the three outcomes of a recipe API call.
type Status int

const (
	// StatusFound means the call succeeded and returned at least one item.
	StatusFound Status = iota
	// StatusEmpty means the call succeeded with a null or empty collection.
	StatusEmpty
	// StatusFailed means the call did not complete (transport or HTTP error).
	StatusFailed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one recipe API call. An empty collection is never
// reported as a failure, and a failure never carries items.
type Result[T any] struct {
	Status Status
	Items  []T
	Err    error
}

// Found builds a result from a successful response, choosing Found or Empty.
func Found[T any](items []T) Result[T] {
	if len(items) == 0 {
		return Result[T]{Status: StatusEmpty, Items: []T{}}
	}
	return Result[T]{Status: StatusFound, Items: items}
}

// Failed builds a failed result.
func Failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}

// First returns the first item, if any.
func (r Result[T]) First() (T, bool) {
	var zero T
	if r.Status != StatusFound || len(r.Items) == 0 {
		return zero, false
	}
	return r.Items[0], true
}
