package core

import (
	"errors"
	"fmt"
)

var (
	// ErrRemotePathNotFound means the configured remote directory could not be entered.
	ErrRemotePathNotFound = errors.New("remote path not found")

	// ErrFileWrite means a remote file could not be saved to the staging directory.
	ErrFileWrite = errors.New("file write error")

	// ErrUnknownKind means no import kind is registered under the requested code.
	ErrUnknownKind = errors.New("unknown import kind")

	// ErrRunInProgress means another run of the same kind holds the staging directory.
	ErrRunInProgress = errors.New("import run already in progress")

	// ErrInvalidPattern means the configured file pattern is empty or does not compile.
	ErrInvalidPattern = errors.New("invalid file pattern")
)

// FetchError describes a failed download into the staging directory.
// It matches ErrFileWrite under errors.Is.
type FetchError struct {
	File string // remote name
	Path string // local destination
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error while saving %s to %s: %v", e.File, e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFileWrite }
