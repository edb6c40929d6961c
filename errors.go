package romfs

import (
	"errors"

	"github.com/aligator/romfs/checkpoint"
)

// Sentinel error kinds. Callers match these with errors.Is; every
// returned error is wrapped in a checkpoint by wrap or wrapCause at its
// detection site. The file and line that checkpoint records are those
// of the helper below, not of the detection site.
var (
	ErrNoSpace        = errors.New("romfs: no space left (sectors or file entries exhausted)")
	ErrNotFound       = errors.New("romfs: no such file")
	ErrAlreadyExists  = errors.New("romfs: file already exists")
	ErrCorrupt        = errors.New("romfs: corrupt filesystem image")
	ErrIOFailure      = errors.New("romfs: device I/O failure")
	ErrBadArgument    = errors.New("romfs: bad argument")
	ErrNotMounted     = errors.New("romfs: filesystem is not mounted")
	ErrAlreadyMounted = errors.New("romfs: filesystem is already mounted")
)

// wrap wraps sentinel in a checkpoint. Use at a detection site that has
// no further underlying error to chain.
func wrap(sentinel error) error {
	return checkpoint.From(sentinel)
}

// wrapCause wraps sentinel in a checkpoint and chains cause
// so that errors.Is matches both sentinel and cause, and errors.Unwrap
// reaches cause. If cause is nil, behaves like wrap(sentinel).
func wrapCause(cause, sentinel error) error {
	if cause == nil {
		return wrap(sentinel)
	}
	return checkpoint.Wrap(cause, sentinel)
}
