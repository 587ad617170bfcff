package core

import "github.com/cockroachdb/errors"

// Error classes. Concrete errors are marked with one of these so callers can
// branch with errors.Is while the message stays specific.
var (
	// ErrSource covers sources that cannot be found, opened or read. Fatal.
	ErrSource = errors.New("source error")

	// ErrConfig covers malformed options, unknown formats and unknown targets. Fatal.
	ErrConfig = errors.New("configuration error")

	// ErrDecode covers field values that cannot be converted. Per row.
	ErrDecode = errors.New("decoding error")

	// ErrWrite covers a sink rejecting one object. Per row.
	ErrWrite = errors.New("write error")

	// ErrFinalize covers a failed commit. Fatal.
	ErrFinalize = errors.New("finalize error")

	// ErrTooManyImports is returned when no run slot frees up in time.
	ErrTooManyImports = errors.New("too many concurrent imports")
)

// Row parse messages carried by Item.Err.
const (
	MsgWrongColumnCount      = "Wrong columns count in the row"
	MsgUnterminatedEnclosure = "Unterminated enclosure in the row"
)

func configErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfig)
}

func sourceErrorf(cause error, format string, args ...any) error {
	var err error
	if cause == nil {
		err = errors.Newf(format, args...)
	} else {
		err = errors.Wrapf(cause, format, args...)
	}
	return errors.WithHint(errors.Mark(err, ErrSource), "check the source path and its permissions")
}
