// Package errors defines the sentinel error values the FAT32 engine returns.
// Every kind is a named value rather than a raw string so callers can test
// for it with errors.Is, the way the teacher's driver packages distinguish
// error kinds from syscall.Errno values.
package errors

import (
	"fmt"
)

type FatError string

const ErrInvalidImage = FatError("invalid FAT32 boot sector")
const ErrIOFailed = FatError("input/output error")
const ErrNotFound = FatError("no such file or directory")
const ErrExists = FatError("file or directory already exists")
const ErrDirectoryNotEmpty = FatError("directory not empty")
const ErrIsADirectory = FatError("is a directory")
const ErrNotADirectory = FatError("not a directory")
const ErrFileOpen = FatError("file is open")
const ErrNoSpaceOnDevice = FatError("no space left on device")
const ErrTooManyOpenFiles = FatError("too many open files")
const ErrAlreadyOpen = FatError("file is already open")
const ErrNotOpen = FatError("file is not open")
const ErrInvalidMode = FatError("invalid open mode")
const ErrModeConflict = FatError("operation not permitted by open mode")
const ErrArgumentOutOfRange = FatError("argument out of range")

func (e FatError) Error() string {
	return string(e)
}

func (e FatError) WithMessage(message string) DriverError {
	return customDriverError{
		message:  fmt.Sprintf("%s: %s", string(e), message),
		sentinel: e,
	}
}

func (e FatError) Wrap(err error) DriverError {
	return customDriverError{
		message:  fmt.Sprintf("%s: %s", string(e), err.Error()),
		sentinel: e,
		cause:    err,
	}
}
