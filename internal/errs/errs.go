package errs

import (
	"github.com/ansel1/merry/v2"
)

// Failure classes reported by av-merge. Match them with errors.Is.
var (
	// ErrInputNotFound means no video or no audio file could be resolved.
	ErrInputNotFound = merry.Sentinel("input not found")

	// ErrOptionalAssetMissing means a reaction clip or watermark is absent.
	// It is never returned to main; the step is skipped with a warning.
	ErrOptionalAssetMissing = merry.Sentinel("optional asset missing")

	// ErrLibraryFailure wraps failures from ffprobe or ffmpeg.
	ErrLibraryFailure = merry.Sentinel("media library failure")

	// ErrInvalidConfig means a flag or environment value is out of range.
	ErrInvalidConfig = merry.Sentinel("invalid configuration")
)

// InputNotFound returns an ErrInputNotFound carrying the given message.
func InputNotFound(format string, args ...interface{}) error {
	return merry.Wrap(ErrInputNotFound, merry.WithMessagef(format, args...))
}

// OptionalAssetMissing returns an ErrOptionalAssetMissing carrying the given message.
func OptionalAssetMissing(format string, args ...interface{}) error {
	return merry.Wrap(ErrOptionalAssetMissing, merry.WithMessagef(format, args...))
}

// InvalidConfig returns an ErrInvalidConfig carrying the given message.
func InvalidConfig(format string, args ...interface{}) error {
	return merry.Wrap(ErrInvalidConfig, merry.WithMessagef(format, args...))
}

// LibraryFailure marks cause as an ErrLibraryFailure while keeping it as the
// error's cause. cause may be nil.
func LibraryFailure(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return merry.Wrap(ErrLibraryFailure, merry.WithMessagef(format, args...))
	}
	return merry.Wrap(ErrLibraryFailure, merry.WithMessagef(format, args...), merry.WithCause(cause))
}
