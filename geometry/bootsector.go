// Package geometry parses the FAT32 boot sector and derives the sector and
// cluster offsets the rest of the engine needs.
package geometry

import (
	"encoding/binary"
	"io"

	fserrors "github.com/dmitri-k/fatshell/errors"
)

// Signature is the magic value that must appear at bytes 510-511 of a valid
// boot sector.
const Signature = 0xAA55

// BootSectorSize is the number of bytes read from the start of the image to
// parse the boot sector.
const BootSectorSize = 512

// Geometry holds the boot-sector fields needed to address the FAT and data
// regions of the volume, plus everything derived from them. It is immutable
// once built by Parse.
type Geometry struct {
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectorCount uint16
	NumFATs             uint8
	TotalSectors        uint32
	FATSize             uint32
	RootCluster         uint32
	Signature           uint16

	BytesPerCluster  uint32
	FATOffset        int64
	DataRegionOffset int64
	TotalClusters    uint32
}

// Parse reads the first 512 bytes of image and builds a Geometry from it.
// It performs no writes. It fails with errors.ErrInvalidImage if the boot
// sector signature doesn't match 0xAA55. image's position is not assumed
// going in and is left just past the boot sector on return; callers other
// than the initial mount always seek before reading or writing regardless.
func Parse(image io.ReadWriteSeeker) (*Geometry, error) {
	if _, err := image.Seek(0, io.SeekStart); err != nil {
		return nil, fserrors.ErrIOFailed.Wrap(err)
	}

	buf := make([]byte, BootSectorSize)
	if _, err := io.ReadFull(image, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, fserrors.ErrInvalidImage.WithMessage("image shorter than one boot sector")
		}
		return nil, fserrors.ErrIOFailed.Wrap(err)
	}

	g := &Geometry{
		BytesPerSector:      binary.LittleEndian.Uint16(buf[11:13]),
		SectorsPerCluster:   buf[13],
		ReservedSectorCount: binary.LittleEndian.Uint16(buf[14:16]),
		NumFATs:             buf[16],
		Signature:           binary.LittleEndian.Uint16(buf[510:512]),
	}

	totalSectors16 := binary.LittleEndian.Uint16(buf[19:21])
	totalSectors32 := binary.LittleEndian.Uint32(buf[32:36])
	if totalSectors32 != 0 {
		g.TotalSectors = totalSectors32
	} else {
		g.TotalSectors = uint32(totalSectors16)
	}

	fatSize16 := binary.LittleEndian.Uint16(buf[22:24])
	fatSize32 := binary.LittleEndian.Uint32(buf[36:40])
	if fatSize32 != 0 {
		g.FATSize = fatSize32
	} else {
		g.FATSize = uint32(fatSize16)
	}

	g.RootCluster = binary.LittleEndian.Uint32(buf[44:48])

	if g.Signature != Signature {
		return nil, fserrors.ErrInvalidImage.WithMessage("bad boot sector signature")
	}

	g.BytesPerCluster = uint32(g.BytesPerSector) * uint32(g.SectorsPerCluster)
	g.FATOffset = int64(g.ReservedSectorCount) * int64(g.BytesPerSector)
	g.DataRegionOffset = g.FATOffset + int64(g.NumFATs)*int64(g.FATSize)*int64(g.BytesPerSector)

	reservedAndFATSectors := uint32(g.ReservedSectorCount) + uint32(g.NumFATs)*g.FATSize
	if g.TotalSectors > reservedAndFATSectors && g.SectorsPerCluster != 0 {
		g.TotalClusters = (g.TotalSectors - reservedAndFATSectors) / uint32(g.SectorsPerCluster)
	}

	return g, nil
}

// ClusterOffset returns the absolute byte offset of the first byte of the
// given cluster in the data region. Cluster numbers below 2 are not valid
// data clusters (0 and 1 are reserved) but this function does not validate
// that; callers check cluster validity before calling it.
func (g *Geometry) ClusterOffset(cluster uint32) int64 {
	return g.DataRegionOffset + int64(cluster-2)*int64(g.BytesPerCluster)
}

// FATEntryOffset returns the absolute byte offset of the 32-bit FAT entry
// for the given cluster index.
func (g *Geometry) FATEntryOffset(cluster uint32) int64 {
	return g.FATOffset + 4*int64(cluster)
}
