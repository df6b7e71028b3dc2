package fat32_test

import (
	"encoding/binary"

	"github.com/dmitri-k/fatshell/fat32"
	"github.com/dmitri-k/fatshell/geometry"
	"github.com/xaionaro-go/bytesextra"
)

// newFixture builds an in-memory FAT32 image with the given cluster count,
// one FAT, a root directory at cluster 2, and returns the backing bytes
// alongside its parsed geometry. Clusters 3.. are left free.
func newFixture(totalClusters uint32) ([]byte, *geometry.Geometry) {
	const bytesPerSector = 512
	const sectorsPerCluster = 1
	const reservedSectors = 1
	const numFATs = 1

	fatBytes := totalClusters * 4
	fatSectors := (fatBytes + bytesPerSector - 1) / bytesPerSector

	totalSectors := reservedSectors + numFATs*fatSectors + totalClusters*sectorsPerCluster
	raw := make([]byte, totalSectors*bytesPerSector)

	put16 := func(off int, v uint16) { binary.LittleEndian.PutUint16(raw[off:], v) }
	put32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(raw[off:], v) }

	put16(11, bytesPerSector)
	raw[13] = sectorsPerCluster
	put16(14, reservedSectors)
	raw[16] = numFATs
	put16(19, 0)
	put32(32, totalSectors)
	put32(36, fatSectors)
	put32(44, 2) // root cluster
	put16(510, geometry.Signature)

	fatOffset := reservedSectors * bytesPerSector
	// Reserve entries 0 and 1 per the FAT32 convention, mark root (cluster 2)
	// end-of-chain.
	put32(fatOffset+0, 0x0FFFFFF8)
	put32(fatOffset+4, 0x0FFFFFFF)
	put32(fatOffset+8, fat32.ClusterEOC)

	image := bytesextra.NewReadWriteSeeker(raw)
	geo, err := geometry.Parse(image)
	if err != nil {
		panic(err)
	}
	return raw, geo
}
