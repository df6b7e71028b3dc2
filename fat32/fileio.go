package fat32

import (
	"github.com/dmitri-k/fatshell/geometry"
)

// FileIO reads and writes file data that lives in a cluster chain, mapping
// a flat byte offset onto the chain's individual clusters.
type FileIO struct {
	image    Image
	geometry *geometry.Geometry
	clusters *Accessor
}

// NewFileIO builds a FileIO engine over the given accessor's FAT.
func NewFileIO(image Image, geo *geometry.Geometry, clusters *Accessor) *FileIO {
	return &FileIO{image: image, geometry: geo, clusters: clusters}
}

// ReadAt reads len(buf) bytes starting at the given byte offset within the
// file described by chain, the full list of clusters making up the file in
// order. It stops early, returning a shorter read, only if the chain runs
// out of clusters before buf is filled; the caller is expected to clamp
// requests to the file's reported size beforehand.
func (f *FileIO) ReadAt(chain []uint32, offset int64, buf []byte) (int, error) {
	bytesPerCluster := int64(f.geometry.BytesPerCluster)
	clusterIndex := int(offset / bytesPerCluster)
	clusterOffset := offset % bytesPerCluster

	read := 0
	for read < len(buf) && clusterIndex < len(chain) {
		cluster := chain[clusterIndex]
		toRead := bytesPerCluster - clusterOffset
		if remaining := int64(len(buf) - read); toRead > remaining {
			toRead = remaining
		}

		dst := buf[read : int64(read)+toRead]
		if err := readAt(f.image, f.geometry.ClusterOffset(cluster)+clusterOffset, dst); err != nil {
			return read, err
		}

		read += int(toRead)
		clusterOffset = 0
		clusterIndex++
	}

	return read, nil
}

// WriteAt writes data at the given byte offset within the file described
// by chain, extending the chain with freshly allocated clusters if offset
// plus len(data) runs past its current end. It returns the (possibly
// extended) chain so the caller can persist the file's new first-cluster
// and length bookkeeping; chain itself is never mutated in place.
func (f *FileIO) WriteAt(chain []uint32, offset int64, data []byte) ([]uint32, error) {
	bytesPerCluster := int64(f.geometry.BytesPerCluster)
	requiredClusters := int((offset + int64(len(data)) + bytesPerCluster - 1) / bytesPerCluster)

	for len(chain) < requiredClusters {
		newCluster, err := f.clusters.Allocate()
		if err != nil {
			return chain, err
		}
		if len(chain) > 0 {
			if err := f.clusters.SetNext(chain[len(chain)-1], newCluster); err != nil {
				return chain, err
			}
		}
		chain = append(chain, newCluster)
	}

	clusterIndex := int(offset / bytesPerCluster)
	clusterOffset := offset % bytesPerCluster

	written := 0
	for written < len(data) {
		cluster := chain[clusterIndex]
		toWrite := bytesPerCluster - clusterOffset
		if remaining := int64(len(data) - written); toWrite > remaining {
			toWrite = remaining
		}

		src := data[written : int64(written)+toWrite]
		if err := writeAt(f.image, f.geometry.ClusterOffset(cluster)+clusterOffset, src); err != nil {
			return chain, err
		}

		written += int(toWrite)
		clusterOffset = 0
		clusterIndex++
	}

	return chain, nil
}
