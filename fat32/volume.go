package fat32

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	fserrors "github.com/dmitri-k/fatshell/errors"
	"github.com/dmitri-k/fatshell/geometry"
)

// Volume ties the boot sector geometry, FAT accessor, directory scanner,
// file I/O engine, and lifecycle operations together into the single
// object the shell drives. It has no notion of a "current directory" of
// its own; callers track the current cluster and pass it into every call.
type Volume struct {
	Image     Image
	Geometry  *geometry.Geometry
	Clusters  *Accessor
	Dirs      *DirectoryScanner
	Files     *FileIO
	Lifecycle *Lifecycle
}

// Mount parses the boot sector at the start of image and wires up the rest
// of the engine around it. It performs no writes.
func Mount(image Image) (*Volume, error) {
	geo, err := geometry.Parse(image)
	if err != nil {
		return nil, err
	}

	clusters, err := NewAccessor(image, geo)
	if err != nil {
		return nil, err
	}

	dirs := NewDirectoryScanner(image, geo, clusters)
	files := NewFileIO(image, geo, clusters)
	lifecycle := NewLifecycle(geo, clusters, dirs)

	return &Volume{
		Image:     image,
		Geometry:  geo,
		Clusters:  clusters,
		Dirs:      dirs,
		Files:     files,
		Lifecycle: lifecycle,
	}, nil
}

// RootCluster returns the cluster number of the volume's root directory.
func (v *Volume) RootCluster() uint32 {
	return v.Geometry.RootCluster
}

// Resolve walks a '/'-separated path starting at startCluster and returns
// the cluster of the directory it names. An empty path resolves to
// startCluster itself. It fails with ErrNotADirectory if any intermediate
// component names a regular file.
func (v *Volume) Resolve(startCluster uint32, path string) (uint32, error) {
	cluster := startCluster
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}

		entry, err := v.Dirs.Lookup(cluster, part)
		if err != nil {
			return 0, err
		}
		if !entry.IsDir() {
			return 0, fserrors.ErrNotADirectory.WithMessage(part)
		}
		cluster = entry.FirstCluster
	}
	return cluster, nil
}

// Validate walks the whole volume from the root directory, checking the
// invariants a healthy filesystem must hold, and aggregates every
// violation it finds rather than stopping at the first one. This is a
// read-only consistency check; it never modifies the image.
func (v *Volume) Validate() error {
	var result *multierror.Error

	visited := make(map[uint32]bool)
	result = multierror.Append(result, v.validateDirectory(v.RootCluster(), visited))

	for cluster := uint32(2); cluster < v.Geometry.TotalClusters+2; cluster++ {
		next, err := v.Clusters.NextOf(cluster)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if next != ClusterFree && !v.Clusters.IsEndOfChain(next) && !v.Clusters.IsValid(next) {
			result = multierror.Append(result,
				fserrors.ErrInvalidImage.WithMessage("FAT entry references an out-of-range cluster"))
		}
	}

	return result.ErrorOrNil()
}

// validateDirectory recurses through a directory tree, flagging cluster
// chains that loop back on themselves (via visited) and any child whose
// first cluster is out of range.
func (v *Volume) validateDirectory(cluster uint32, visited map[uint32]bool) error {
	if visited[cluster] {
		return fserrors.ErrInvalidImage.WithMessage("cluster chain loop detected in directory tree")
	}
	visited[cluster] = true

	entries, err := v.Dirs.Enumerate(cluster)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, entry := range entries {
		if entry.ShortName == "." || entry.ShortName == ".." {
			continue
		}
		if entry.IsDir() {
			if !v.Clusters.IsValid(entry.FirstCluster) {
				result = multierror.Append(result,
					fserrors.ErrInvalidImage.WithMessage("directory entry "+entry.ShortName+" has an invalid first cluster"))
				continue
			}
			if err := v.validateDirectory(entry.FirstCluster, visited); err != nil {
				result = multierror.Append(result, err)
			}
		} else if entry.FirstCluster != 0 && !v.Clusters.IsValid(entry.FirstCluster) {
			result = multierror.Append(result,
				fserrors.ErrInvalidImage.WithMessage("file entry "+entry.ShortName+" has an invalid first cluster"))
		}
	}

	return result.ErrorOrNil()
}
