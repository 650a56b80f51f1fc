package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies fetch failures so the interaction layer can pick the right
// user-facing message without string matching.
type Kind int

const (
	ExtractionFailed Kind = iota
	NoMatchingFormat
	SizeLimitExceeded
	NetworkTimeout
	FilesystemError
)

func (k Kind) String() string {
	switch k {
	case ExtractionFailed:
		return "extraction_failed"
	case NoMatchingFormat:
		return "no_matching_format"
	case SizeLimitExceeded:
		return "size_limit_exceeded"
	case NetworkTimeout:
		return "network_timeout"
	case FilesystemError:
		return "filesystem_error"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the failure kind from any error returned by Fetch.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// classify maps a raw materialization failure to its kind. Context expiry is
// a timeout; yt-dlp reports an unsatisfiable selector with a fixed phrase.
func classify(ctx context.Context, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return newError(NetworkTimeout, err)
	}
	if strings.Contains(err.Error(), "Requested format is not available") {
		return newError(NoMatchingFormat, err)
	}
	return newError(ExtractionFailed, err)
}
