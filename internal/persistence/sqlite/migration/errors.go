package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilename indicates a .sql file that does not match the
	// {version}_{description}.sql naming convention.
	ErrInvalidFilename = errors.New("migration: invalid file name")

	// ErrEmptyFile indicates a migration file without SQL statements.
	ErrEmptyFile = errors.New("migration: empty file")

	// ErrDuplicateVersion indicates two files claiming the same version.
	ErrDuplicateVersion = errors.New("migration: duplicate version")

	// ErrSequenceGap indicates a missing version between the lowest and
	// highest file on disk.
	ErrSequenceGap = errors.New("migration: version sequence gap")

	// ErrUnknownApplied indicates an applied version whose file is gone.
	ErrUnknownApplied = errors.New("migration: applied version has no file")

	// ErrChecksumMismatch indicates an applied migration whose file content
	// changed after it was applied.
	ErrChecksumMismatch = errors.New("migration: checksum mismatch")
)

// Error carries the migration context of a failure.
type Error struct {
	Version string
	Path    string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s: %s: %v", e.Version, e.Op, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.Path, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(version, path, op string, err error) *Error {
	return &Error{Version: version, Path: path, Op: op, Err: err}
}
