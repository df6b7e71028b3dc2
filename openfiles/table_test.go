package openfiles_test

import (
	"testing"

	fserrors "github.com/dmitri-k/fatshell/errors"
	"github.com/dmitri-k/fatshell/openfiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	cases := map[string]openfiles.Mode{
		"-r":  openfiles.ReadOnly,
		"-w":  openfiles.WriteOnly,
		"-rw": openfiles.ReadWrite,
		"-wr": openfiles.ReadWrite,
	}
	for flag, want := range cases {
		got, err := openfiles.ParseMode(flag)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := openfiles.ParseMode("-x")
	assert.ErrorIs(t, err, fserrors.ErrInvalidMode)
}

func TestTableOpenAndClose(t *testing.T) {
	tbl := openfiles.New()

	require.NoError(t, tbl.Open(openfiles.File{Name: "a.txt", Mode: openfiles.ReadOnly}))
	assert.True(t, tbl.IsOpen("a.txt"))

	err := tbl.Open(openfiles.File{Name: "a.txt", Mode: openfiles.ReadOnly})
	assert.ErrorIs(t, err, fserrors.ErrAlreadyOpen)

	require.NoError(t, tbl.Close("a.txt"))
	assert.False(t, tbl.IsOpen("a.txt"))

	err = tbl.Close("a.txt")
	assert.ErrorIs(t, err, fserrors.ErrNotOpen)
}

func TestTableEnforcesCapacity(t *testing.T) {
	tbl := openfiles.New()
	for i := 0; i < openfiles.MaxOpenFiles; i++ {
		name := string(rune('a' + i))
		require.NoError(t, tbl.Open(openfiles.File{Name: name}))
	}

	err := tbl.Open(openfiles.File{Name: "overflow"})
	assert.ErrorIs(t, err, fserrors.ErrTooManyOpenFiles)
}

func TestTableGetReturnsMutableEntry(t *testing.T) {
	tbl := openfiles.New()
	require.NoError(t, tbl.Open(openfiles.File{Name: "a.txt", Mode: openfiles.ReadWrite}))

	f, err := tbl.Get("a.txt")
	require.NoError(t, err)
	f.Offset = 42

	f2, err := tbl.Get("a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 42, f2.Offset)
}

func TestModeCanReadCanWrite(t *testing.T) {
	assert.True(t, openfiles.ReadOnly.CanRead())
	assert.False(t, openfiles.ReadOnly.CanWrite())
	assert.False(t, openfiles.WriteOnly.CanRead())
	assert.True(t, openfiles.WriteOnly.CanWrite())
	assert.True(t, openfiles.ReadWrite.CanRead())
	assert.True(t, openfiles.ReadWrite.CanWrite())
}
