package fat32

import (
	fserrors "github.com/dmitri-k/fatshell/errors"
	"github.com/dmitri-k/fatshell/geometry"
)

// Lifecycle implements the directory-mutating operations: creating and
// removing files and subdirectories, and renaming entries in place. It
// composes an Accessor and a DirectoryScanner rather than duplicating their
// logic.
type Lifecycle struct {
	geometry *geometry.Geometry
	clusters *Accessor
	dirs     *DirectoryScanner
}

// NewLifecycle builds a Lifecycle engine sharing the given accessor and
// scanner.
func NewLifecycle(geo *geometry.Geometry, clusters *Accessor, dirs *DirectoryScanner) *Lifecycle {
	return &Lifecycle{geometry: geo, clusters: clusters, dirs: dirs}
}

func (l *Lifecycle) entryExists(parentCluster uint32, name string) bool {
	_, err := l.dirs.Lookup(parentCluster, name)
	return err == nil
}

// CreateFile adds a zero-length regular file entry named name to the
// directory at parentCluster. A new file starts with no allocated cluster
// (first cluster 0); one is allocated lazily on first write.
func (l *Lifecycle) CreateFile(parentCluster uint32, name string) error {
	if l.entryExists(parentCluster, name) {
		return fserrors.ErrExists.WithMessage(name)
	}
	return l.dirs.AddEntry(parentCluster, name, 0, 0, 0)
}

// CreateDirectory allocates a cluster for a new subdirectory, initializes
// its "." and ".." entries, and links it into parentCluster under name.
// The new cluster is allocated and initialized before the parent's entry
// is written, so a crash partway through never leaves a directory entry
// pointing at an uninitialized cluster.
func (l *Lifecycle) CreateDirectory(parentCluster uint32, name string) error {
	if l.entryExists(parentCluster, name) {
		return fserrors.ErrExists.WithMessage(name)
	}

	newCluster, err := l.clusters.Allocate()
	if err != nil {
		return err
	}

	if err := l.dirs.InitializeDirectory(newCluster, parentCluster); err != nil {
		return err
	}

	return l.dirs.AddEntry(parentCluster, name, AttrDirectory, newCluster, 0)
}

// Remove deletes a regular file's directory entry and frees its cluster
// chain, in that order: the entry is marked deleted before its clusters are
// freed, so a crash between the two steps leaves a deleted-but-unfreed
// chain rather than a live-looking entry pointing at already-reusable
// clusters. It fails with ErrIsADirectory if name refers to a subdirectory.
func (l *Lifecycle) Remove(parentCluster uint32, name string) error {
	entry, err := l.dirs.Lookup(parentCluster, name)
	if err != nil {
		return err
	}
	if entry.IsDir() {
		return fserrors.ErrIsADirectory.WithMessage(name)
	}

	if err := l.dirs.MarkDeleted(entry); err != nil {
		return err
	}

	if entry.FirstCluster != 0 {
		return l.clusters.FreeChain(entry.FirstCluster)
	}
	return nil
}

// RemoveDirectory deletes an empty subdirectory's entry and frees its
// cluster chain, entry first and chain second, for the same crash-safety
// reason as Remove. It fails with ErrNotADirectory if name is a regular
// file, and ErrDirectoryNotEmpty unless the only entries present are "."
// and "..".
func (l *Lifecycle) RemoveDirectory(parentCluster uint32, name string) error {
	entry, err := l.dirs.Lookup(parentCluster, name)
	if err != nil {
		return err
	}
	if !entry.IsDir() {
		return fserrors.ErrNotADirectory.WithMessage(name)
	}

	children, err := l.dirs.Enumerate(entry.FirstCluster)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.ShortName != "." && child.ShortName != ".." {
			return fserrors.ErrDirectoryNotEmpty.WithMessage(name)
		}
	}

	if err := l.dirs.MarkDeleted(entry); err != nil {
		return err
	}

	return l.clusters.FreeChain(entry.FirstCluster)
}

// Rename changes the short name of an existing entry within the same
// directory. Moving an entry to a different directory is out of scope;
// only renaming in place is supported.
func (l *Lifecycle) Rename(parentCluster uint32, oldName, newName string) error {
	entry, err := l.dirs.Lookup(parentCluster, oldName)
	if err != nil {
		return err
	}
	if l.entryExists(parentCluster, newName) {
		return fserrors.ErrExists.WithMessage(newName)
	}

	return l.dirs.LocateAndUpdateName(entry, newName)
}
