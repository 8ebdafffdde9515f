package dataset

import (
	"errors"
	"fmt"
)

// ErrLoad is the sentinel kind for every dataset loading failure.
var ErrLoad = errors.New("load dataset failed")

// ErrUnsupportedFormat is returned for files that are neither spreadsheets nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// LoadError reports a fatal failure while reading the source table.
// It matches ErrLoad via errors.Is and unwraps to the underlying cause.
type LoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

func loadError(path, op string, err error) error {
	return &LoadError{Path: path, Op: op, Err: err}
}
