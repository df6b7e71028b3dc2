// Package openfiles tracks the shell's open file handles: which files are
// open, in what mode, and at what read/write offset. It knows nothing
// about the disk image itself; callers resolve a name to a cluster chain
// and size before opening, and persist size changes themselves.
package openfiles

import (
	fserrors "github.com/dmitri-k/fatshell/errors"
)

// MaxOpenFiles is the largest number of files the table accepts at once.
const MaxOpenFiles = 10

// Mode is how an open file may be accessed.
type Mode int

const (
	ReadOnly Mode = iota
	WriteOnly
	ReadWrite
)

// String renders a Mode the way `lsof` reports it.
func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "Read Only"
	case WriteOnly:
		return "Write Only"
	case ReadWrite:
		return "Read/Write"
	default:
		return "Unknown"
	}
}

// ParseMode converts a command-line flag ("-r", "-w", "-rw", "-wr") into a
// Mode.
func ParseMode(flag string) (Mode, error) {
	switch flag {
	case "-r":
		return ReadOnly, nil
	case "-w":
		return WriteOnly, nil
	case "-rw", "-wr":
		return ReadWrite, nil
	default:
		return 0, fserrors.ErrInvalidMode.WithMessage(flag)
	}
}

// CanRead reports whether m permits read operations.
func (m Mode) CanRead() bool { return m == ReadOnly || m == ReadWrite }

// CanWrite reports whether m permits write operations.
func (m Mode) CanWrite() bool { return m == WriteOnly || m == ReadWrite }

// File describes one entry in the open file table.
type File struct {
	Name         string
	Mode         Mode
	Offset       uint32
	FirstCluster uint32
	Size         uint32
}

// Table is the shell's open file table, keyed by filename. A real FAT32
// volume allows multiple hard links to a file under different names, but
// within the scope of this shell a name uniquely identifies an open file.
type Table struct {
	files map[string]*File
}

// New returns an empty open file table.
func New() *Table {
	return &Table{files: make(map[string]*File)}
}

// Open adds name to the table. It fails with ErrTooManyOpenFiles once
// MaxOpenFiles entries are held, and ErrAlreadyOpen if name is already
// open.
func (t *Table) Open(file File) error {
	if len(t.files) >= MaxOpenFiles {
		return fserrors.ErrTooManyOpenFiles.WithMessage("maximum number of open files reached")
	}
	if _, open := t.files[file.Name]; open {
		return fserrors.ErrAlreadyOpen.WithMessage(file.Name)
	}

	f := file
	t.files[file.Name] = &f
	return nil
}

// Close removes name from the table. It fails with ErrNotOpen if name
// isn't open.
func (t *Table) Close(name string) error {
	if _, open := t.files[name]; !open {
		return fserrors.ErrNotOpen.WithMessage(name)
	}
	delete(t.files, name)
	return nil
}

// Get returns the open file entry for name, for callers that need to read
// or mutate its offset/size in place.
func (t *Table) Get(name string) (*File, error) {
	f, open := t.files[name]
	if !open {
		return nil, fserrors.ErrNotOpen.WithMessage(name)
	}
	return f, nil
}

// IsOpen reports whether name currently has an open entry.
func (t *Table) IsOpen(name string) bool {
	_, open := t.files[name]
	return open
}

// List returns every open file, in no particular order — callers that need
// a stable order (lsof) sort the result themselves.
func (t *Table) List() []File {
	files := make([]File, 0, len(t.files))
	for _, f := range t.files {
		files = append(files, *f)
	}
	return files
}
