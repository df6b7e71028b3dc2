package geometry_test

import (
	"testing"

	"github.com/dmitri-k/fatshell/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// buildBootSector returns a 512-byte boot sector with the given fields set,
// sized for a 1 MiB image with 512-byte sectors and 1 sector per cluster.
func buildBootSector(bytesPerSector uint16, sectorsPerCluster uint8, reserved uint16, numFATs uint8, fatSize uint32, totalSectors uint32, rootCluster uint32, signature uint16) []byte {
	buf := make([]byte, 512)
	put16 := func(off int, v uint16) { buf[off] = byte(v); buf[off+1] = byte(v >> 8) }
	put32 := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}

	put16(11, bytesPerSector)
	buf[13] = sectorsPerCluster
	put16(14, reserved)
	buf[16] = numFATs
	put16(19, 0) // force 32-bit total sectors field
	put16(22, 0) // force 32-bit fat size field
	put32(32, totalSectors)
	put32(36, fatSize)
	put32(44, rootCluster)
	put16(510, signature)
	return buf
}

func TestParseValidBootSector(t *testing.T) {
	raw := buildBootSector(512, 1, 32, 2, 16, 2048, 2, geometry.Signature)
	image := bytesextra.NewReadWriteSeeker(raw)

	g, err := geometry.Parse(image)
	require.NoError(t, err)

	assert.EqualValues(t, 512, g.BytesPerSector)
	assert.EqualValues(t, 1, g.SectorsPerCluster)
	assert.EqualValues(t, 512, g.BytesPerCluster)
	assert.EqualValues(t, 32*512, g.FATOffset)
	assert.EqualValues(t, 32*512+2*16*512, g.DataRegionOffset)
	assert.EqualValues(t, 2, g.RootCluster)

	expectedClusters := (uint32(2048) - (32 + 2*16)) / 1
	assert.EqualValues(t, expectedClusters, g.TotalClusters)
}

func TestParseRejectsBadSignature(t *testing.T) {
	raw := buildBootSector(512, 1, 32, 2, 16, 2048, 2, 0x1234)
	image := bytesextra.NewReadWriteSeeker(raw)

	_, err := geometry.Parse(image)
	require.Error(t, err)
}

func TestParseFallsBackTo16BitFields(t *testing.T) {
	raw := buildBootSector(512, 1, 32, 2, 0, 0, 2, geometry.Signature)
	// Set the 16-bit total-sectors and fat-size fields explicitly.
	raw[19] = 0x00
	raw[20] = 0x08 // 2048
	raw[22] = 0x10 // 16
	raw[23] = 0x00

	image := bytesextra.NewReadWriteSeeker(raw)
	g, err := geometry.Parse(image)
	require.NoError(t, err)

	assert.EqualValues(t, 2048, g.TotalSectors)
	assert.EqualValues(t, 16, g.FATSize)
}

func TestClusterOffset(t *testing.T) {
	raw := buildBootSector(512, 1, 32, 2, 16, 2048, 2, geometry.Signature)
	image := bytesextra.NewReadWriteSeeker(raw)
	g, err := geometry.Parse(image)
	require.NoError(t, err)

	assert.Equal(t, g.DataRegionOffset, g.ClusterOffset(2))
	assert.Equal(t, g.DataRegionOffset+int64(g.BytesPerCluster), g.ClusterOffset(3))
}
