package errors_test

import (
	"errors"
	"testing"

	fserrors "github.com/dmitri-k/fatshell/errors"
	"github.com/stretchr/testify/assert"
)

func TestFatErrorWithMessage(t *testing.T) {
	newErr := fserrors.ErrNotFound.WithMessage("FOO.TXT")
	assert.Equal(t, "no such file or directory: FOO.TXT", newErr.Error())
	assert.ErrorIs(t, newErr, fserrors.ErrNotFound)
}

func TestFatErrorWrap(t *testing.T) {
	originalErr := errors.New("short read")
	newErr := fserrors.ErrIOFailed.Wrap(originalErr)

	assert.Equal(t, "input/output error: short read", newErr.Error())
	assert.ErrorIs(t, newErr, originalErr)
	assert.ErrorIs(t, newErr, fserrors.ErrIOFailed)
}
