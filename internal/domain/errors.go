package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUploadFailed    = errors.New("media upload failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("resource already exists")
)

// Stable error kinds exposed to callers.
const (
	KindNotFound        = "not_found"
	KindInvalidArgument = "invalid_argument"
	KindUploadFailed    = "upload_failed"
	KindUnauthenticated = "unauthenticated"
	KindForbidden       = "forbidden"
	KindConflict        = "conflict"
	KindInternal        = "internal"
)

// KindOf maps an error chain to its stable kind.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrUploadFailed):
		return KindUploadFailed
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
