package fat32

import (
	"github.com/boljen/go-bitmap"
	fserrors "github.com/dmitri-k/fatshell/errors"
	"github.com/dmitri-k/fatshell/geometry"
)

// ClusterEOCMin is the smallest 28-bit value treated as end-of-chain. Values
// from here through 0x0FFFFFFF all mark the last cluster of a chain; this
// engine always writes the canonical 0x0FFFFFF8 form.
const ClusterEOCMin = 0x0FFFFFF8

// ClusterEOC is the end-of-chain marker this engine writes when it
// terminates a chain.
const ClusterEOC = 0x0FFFFFF8

// ClusterFree marks an entry that belongs to no chain.
const ClusterFree = 0x00000000

// clusterMask keeps only the 28 bits that are meaningful in a FAT32 entry;
// the top 4 bits are reserved and always masked to zero on read and write.
const clusterMask = 0x0FFFFFFF

// Accessor reads and writes the File Allocation Table itself: walking
// chains, allocating free clusters, and freeing them. It keeps a bitmap of
// free clusters built once at mount time so Allocate doesn't rescan the
// whole FAT on every call.
type Accessor struct {
	image    Image
	geometry *geometry.Geometry
	free     bitmap.Bitmap
}

// NewAccessor builds an Accessor for geo and scans the FAT once to seed its
// free-cluster bitmap. Cluster numbers 0 and 1 are reserved and never
// considered free.
func NewAccessor(image Image, geo *geometry.Geometry) (*Accessor, error) {
	a := &Accessor{
		image:    image,
		geometry: geo,
		free:     bitmap.New(int(geo.TotalClusters) + 2),
	}

	for cluster := uint32(2); cluster < geo.TotalClusters+2; cluster++ {
		entry, err := a.readEntry(cluster)
		if err != nil {
			return nil, err
		}
		a.free.Set(int(cluster), entry == ClusterFree)
	}

	return a, nil
}

func (a *Accessor) readEntry(cluster uint32) (uint32, error) {
	raw, err := readUint32At(a.image, a.geometry.FATEntryOffset(cluster))
	if err != nil {
		return 0, err
	}
	return raw & clusterMask, nil
}

func (a *Accessor) writeEntry(cluster uint32, value uint32) error {
	var buf [4]byte
	v := value & clusterMask
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	return writeAt(a.image, a.geometry.FATEntryOffset(cluster), buf[:])
}

// IsValid reports whether cluster refers to an addressable data cluster.
func (a *Accessor) IsValid(cluster uint32) bool {
	return cluster >= 2 && cluster < a.geometry.TotalClusters+2
}

// IsEndOfChain reports whether cluster is an end-of-chain marker rather
// than a link to another cluster.
func (a *Accessor) IsEndOfChain(cluster uint32) bool {
	return cluster >= ClusterEOCMin
}

// NextOf returns the cluster that follows cluster in its chain. Callers
// check IsEndOfChain before calling this with the result.
func (a *Accessor) NextOf(cluster uint32) (uint32, error) {
	if !a.IsValid(cluster) {
		return 0, fserrors.ErrArgumentOutOfRange.WithMessage("invalid cluster in chain")
	}
	return a.readEntry(cluster)
}

// SetNext links cluster to next in the FAT. next may be ClusterEOC or
// ClusterFree as well as another valid cluster number.
func (a *Accessor) SetNext(cluster uint32, next uint32) error {
	if !a.IsValid(cluster) {
		return fserrors.ErrArgumentOutOfRange.WithMessage("invalid cluster")
	}
	return a.writeEntry(cluster, next)
}

// ChainFrom walks the chain starting at start and returns every cluster in
// it, in order. start must already be a valid, non-free cluster.
func (a *Accessor) ChainFrom(start uint32) ([]uint32, error) {
	if !a.IsValid(start) {
		return nil, fserrors.ErrArgumentOutOfRange.WithMessage("invalid chain start cluster")
	}

	var chain []uint32
	cluster := start
	for {
		chain = append(chain, cluster)
		next, err := a.readEntry(cluster)
		if err != nil {
			return nil, err
		}
		if a.IsEndOfChain(next) {
			break
		}
		if next == ClusterFree || !a.IsValid(next) {
			return chain, fserrors.ErrInvalidImage.WithMessage("cluster chain references a free or out-of-range cluster")
		}
		cluster = next
	}
	return chain, nil
}

// Allocate claims one free cluster, marks it end-of-chain, and returns its
// number. It does not link the new cluster to any existing chain; callers
// that are extending a chain call SetNext on the previous tail themselves,
// after Allocate succeeds, so a crash between the two leaves the new
// cluster orphaned rather than the chain pointing at a still-free cluster.
func (a *Accessor) Allocate() (uint32, error) {
	for cluster := uint32(2); cluster < a.geometry.TotalClusters; cluster++ {
		if !a.free.Get(int(cluster)) {
			continue
		}
		if err := a.writeEntry(cluster, ClusterEOC); err != nil {
			return 0, err
		}
		a.free.Set(int(cluster), false)
		return cluster, nil
	}
	return 0, fserrors.ErrNoSpaceOnDevice.WithMessage("no free clusters available")
}

// FreeChain walks the chain starting at start and marks every cluster in it
// free. It reads each cluster's successor before zeroing the cluster's own
// entry, so a crash mid-walk leaves a shorter valid chain rather than
// losing track of the remaining clusters to free.
func (a *Accessor) FreeChain(start uint32) error {
	cluster := start
	for a.IsValid(cluster) {
		next, err := a.readEntry(cluster)
		if err != nil {
			return err
		}
		if err := a.writeEntry(cluster, ClusterFree); err != nil {
			return err
		}
		a.free.Set(int(cluster), true)
		if a.IsEndOfChain(next) {
			break
		}
		cluster = next
	}
	return nil
}
