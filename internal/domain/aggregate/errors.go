package aggregate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownQuery is returned for a query name that is not registered.
	ErrUnknownQuery = errors.New("unknown aggregate")
	// ErrUnknownOrder is returned for a ranking order other than literal or intent.
	ErrUnknownOrder = errors.New("unknown ranking order")
	// ErrEmptyResult is the sentinel kind of EmptyResultWarning.
	ErrEmptyResult = errors.New("empty result")
)

// EmptyResultWarning accompanies an aggregate with zero rows. It is not a
// failure: the aggregate is still returned and renders as an empty view.
type EmptyResultWarning struct {
	Aggregate string
}

func (w *EmptyResultWarning) Error() string {
	return fmt.Sprintf("aggregate %q produced no rows", w.Aggregate)
}

func (w *EmptyResultWarning) Unwrap() error { return ErrEmptyResult }

// IsEmptyResult reports whether err is only an EmptyResultWarning.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrEmptyResult)
}
