package assemble

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedContent is returned when source contains construct the
	// engine does not know how to merge.
	ErrUnsupportedContent = errors.New("unsupported content")
	// ErrMalformedSource is returned when source misses required structure or
	// carries invalid values.
	ErrMalformedSource = errors.New("malformed source")
	// ErrInternalConsistency signals a bug: something engine itself should
	// have guaranteed did not hold.
	ErrInternalConsistency = errors.New("internal consistency violation")
	// ErrMissingMarker is returned for sources with insert marker id which
	// matches nothing, when configured to fail in this case.
	ErrMissingMarker = errors.New("insert marker not found")
)

// AssemblyError identifies the source which failed assembly.
type AssemblyError struct {
	Index int // zero based
	Total int
	Name  string
	Err   error
}

func (e *AssemblyError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("source %d of %d: %v", e.Index+1, e.Total, e.Err)
	}
	return fmt.Sprintf("source %d of %d (%s): %v", e.Index+1, e.Total, e.Name, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUnsupportedContent}, args...)...)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformedSource}, args...)...)
}

func internal(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInternalConsistency}, args...)...)
}
