package fat32

import (
	"encoding/binary"
	"io"

	fserrors "github.com/dmitri-k/fatshell/errors"
)

// Image is the single shared resource the whole engine operates on: the raw
// bytes of the disk image, accessed through one handle with an
// absolute-seek/read/write discipline. No operation may rely on the
// handle's residual position after another operation runs, matching the
// teacher's BlockDevice pattern of seeking immediately before every I/O call.
type Image io.ReadWriteSeeker

// readAt seeks to offset and reads exactly len(buf) bytes.
func readAt(image Image, offset int64, buf []byte) error {
	if _, err := image.Seek(offset, io.SeekStart); err != nil {
		return fserrors.ErrIOFailed.Wrap(err)
	}
	if _, err := io.ReadFull(image, buf); err != nil {
		return fserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

// writeAt seeks to offset and writes all of buf.
func writeAt(image Image, offset int64, buf []byte) error {
	if _, err := image.Seek(offset, io.SeekStart); err != nil {
		return fserrors.ErrIOFailed.Wrap(err)
	}
	if _, err := image.Write(buf); err != nil {
		return fserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

// readUint32At reads a little-endian uint32 at offset.
func readUint32At(image Image, offset int64) (uint32, error) {
	var buf [4]byte
	if err := readAt(image, offset, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
