package fat32

import (
	"encoding/binary"
	"strings"

	fserrors "github.com/dmitri-k/fatshell/errors"
	"github.com/dmitri-k/fatshell/geometry"
	"github.com/noxer/bytewriter"
)

// DirentSize is the size of a single raw directory entry, in bytes.
const DirentSize = 32

// Directory-entry attribute flags. The engine itself only sets
// AttrDirectory and only checks AttrDirectory and AttrLongName; LFN entries
// (attribute 0x0F) are recognized only so they can be skipped, per the
// Non-goal on long filenames.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = 0x0F
)

const entryFree = 0x00
const entryDeleted = 0xE5

// Dirent is a single 8.3 directory entry decoded into a friendlier form.
// ShortName is the raw 11-byte field with trailing spaces and NUL bytes
// stripped; the '.' separator between base and extension is never
// reinserted, so e.g. "FOO.TXT" decodes as "FOO     TXT". There is no
// long-filename tracking.
type Dirent struct {
	ShortName    string
	Attr         uint8
	FirstCluster uint32
	Size         uint32

	// offset is the absolute byte position of this entry on disk. It is
	// filled in by Enumerate and used by callers that need to rewrite the
	// entry in place (UpdateFileSize, LocateAndUpdateName, MarkDeleted).
	offset int64
}

// IsDir reports whether the entry represents a subdirectory.
func (d Dirent) IsDir() bool { return d.Attr&AttrDirectory != 0 }

// decodeDirent parses one 32-byte raw record. ok is false for a free slot
// (first byte 0x00), which also means the caller has reached the end of
// the directory since entries are never reordered once allocated.
func decodeDirent(raw []byte, offset int64) (entry Dirent, ok bool) {
	if raw[0] == entryFree {
		return Dirent{}, false
	}
	if raw[0] == entryDeleted {
		return Dirent{offset: offset}, false
	}

	attr := raw[11]
	firstClusterHigh := binary.LittleEndian.Uint16(raw[20:22])
	firstClusterLow := binary.LittleEndian.Uint16(raw[26:28])
	size := binary.LittleEndian.Uint32(raw[28:32])

	// Only trailing spaces and NUL bytes are stripped; the '.' separator
	// between base and extension is never reinserted.
	shortName := strings.TrimRight(string(raw[0:11]), " \x00")

	return Dirent{
		ShortName:    shortName,
		Attr:         attr,
		FirstCluster: uint32(firstClusterHigh)<<16 | uint32(firstClusterLow),
		Size:         size,
		offset:       offset,
	}, true
}

// FormatShortName converts an arbitrary user-supplied name into the
// fixed-width 8.3 form FAT32 stores on disk: upper-cased, truncated to 8
// characters of base name and 3 of extension, space-padded. "." and ".."
// are stored as literal dots rather than split on the separator, so they
// decode back to themselves under decodeDirent's trim-only rule.
func FormatShortName(name string) [11]byte {
	var raw [11]byte
	for i := range raw {
		raw[i] = ' '
	}

	if name == "." || name == ".." {
		copy(raw[:], name)
		return raw
	}

	upper := strings.ToUpper(name)
	base, ext, hasExt := strings.Cut(upper, ".")

	if len(base) > 8 {
		base = base[:8]
	}
	copy(raw[0:8], base)

	if hasExt {
		if len(ext) > 3 {
			ext = ext[:3]
		}
		copy(raw[8:11], ext)
	}

	return raw
}

var reservedDirentBytes = make([]byte, 8)
var reservedModifiedBytes = make([]byte, 4)

// encodeDirent serializes a short name, attribute, first cluster, and size
// into a 32-byte on-disk record. Timestamp and reserved fields are left
// zeroed; this engine never tracks or reports them.
func encodeDirent(shortName [11]byte, attr uint8, firstCluster uint32, size uint32) []byte {
	buf := make([]byte, DirentSize)
	w := bytewriter.New(buf)

	w.Write(shortName[:])
	w.Write([]byte{attr})
	w.Write(reservedDirentBytes) // NT-reserved, creation time/date, last-accessed date: unused
	binary.Write(w, binary.LittleEndian, uint16(firstCluster>>16))
	w.Write(reservedModifiedBytes) // last-modified time/date: unused
	binary.Write(w, binary.LittleEndian, uint16(firstCluster))
	binary.Write(w, binary.LittleEndian, size)

	return buf
}

// DirectoryScanner walks the 32-byte entries of a directory's cluster
// chain, using an Accessor to follow the chain and an Image to read and
// write the raw entries.
type DirectoryScanner struct {
	image    Image
	geometry *geometry.Geometry
	clusters *Accessor
}

// NewDirectoryScanner builds a scanner sharing the given accessor's view of
// the FAT.
func NewDirectoryScanner(image Image, geo *geometry.Geometry, clusters *Accessor) *DirectoryScanner {
	return &DirectoryScanner{image: image, geometry: geo, clusters: clusters}
}

// Enumerate returns every live entry (skipping deleted slots and LFN
// continuation records) in the directory rooted at startCluster, stopping
// at the first free slot or the end of the chain.
func (s *DirectoryScanner) Enumerate(startCluster uint32) ([]Dirent, error) {
	var entries []Dirent

	err := s.walk(startCluster, func(raw []byte, offset int64) (bool, error) {
		entry, ok := decodeDirent(raw, offset)
		if !ok {
			return raw[0] != entryDeleted, nil // stop only on a truly free slot
		}
		if entry.Attr == AttrLongName {
			return false, nil
		}
		entries = append(entries, entry)
		return false, nil
	})

	return entries, err
}

// walk visits every 32-byte slot in the directory's cluster chain in
// order, calling visit with the raw record and its absolute offset. visit
// returns true to stop the walk early (its return value's error aside).
func (s *DirectoryScanner) walk(startCluster uint32, visit func(raw []byte, offset int64) (bool, error)) error {
	cluster := startCluster
	entriesPerCluster := int(s.geometry.BytesPerCluster) / DirentSize

	for {
		base := s.geometry.ClusterOffset(cluster)
		for i := 0; i < entriesPerCluster; i++ {
			offset := base + int64(i*DirentSize)
			raw := make([]byte, DirentSize)
			if err := readAt(s.image, offset, raw); err != nil {
				return err
			}

			stop, err := visit(raw, offset)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
			if raw[0] == entryFree {
				return nil
			}
		}

		next, err := s.clusters.NextOf(cluster)
		if err != nil {
			return err
		}
		if s.clusters.IsEndOfChain(next) {
			return nil
		}
		cluster = next
	}
}

// Lookup returns the entry named name in the directory rooted at
// startCluster. The comparison is done on the fixed-width 8.3 on-disk
// encoding of name (via FormatShortName), not on the decoded display
// string, so the match is case-insensitive without depending on any
// reinsertion of the '.' separator.
func (s *DirectoryScanner) Lookup(startCluster uint32, name string) (Dirent, error) {
	target := FormatShortName(name)

	var found Dirent
	var ok bool
	err := s.walk(startCluster, func(raw []byte, offset int64) (bool, error) {
		entry, decoded := decodeDirent(raw, offset)
		if !decoded {
			return raw[0] != entryDeleted, nil // stop only on a truly free slot
		}
		if entry.Attr == AttrLongName {
			return false, nil
		}
		if string(raw[0:11]) == string(target[:]) {
			found, ok = entry, true
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return Dirent{}, err
	}
	if !ok {
		return Dirent{}, fserrors.ErrNotFound.WithMessage(name)
	}
	return found, nil
}

// AddEntry writes a new 32-byte record for name into the first free or
// deleted slot found while walking startCluster's chain. If the chain runs
// out of room, it extends the chain by one zeroed cluster (via
// clusters.Allocate) and writes the record into that cluster's first slot,
// mirroring how a directory grows when it fills up.
func (s *DirectoryScanner) AddEntry(startCluster uint32, name string, attr uint8, firstCluster uint32, size uint32) error {
	shortName := FormatShortName(name)
	record := encodeDirent(shortName, attr, firstCluster, size)

	var writeOffset int64 = -1
	err := s.walk(startCluster, func(raw []byte, offset int64) (bool, error) {
		if raw[0] == entryFree || raw[0] == entryDeleted {
			writeOffset = offset
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	if writeOffset < 0 {
		newCluster, tail, err := s.extendChain(startCluster)
		if err != nil {
			return err
		}
		writeOffset = s.geometry.ClusterOffset(newCluster)
		_ = tail
	}

	return writeAt(s.image, writeOffset, record)
}

// extendChain appends a freshly zeroed cluster to the end of the chain
// rooted at startCluster and returns the new cluster along with the
// previous tail cluster it was linked from.
func (s *DirectoryScanner) extendChain(startCluster uint32) (newCluster uint32, tail uint32, err error) {
	chain, err := s.clusters.ChainFrom(startCluster)
	if err != nil {
		return 0, 0, err
	}
	tail = chain[len(chain)-1]

	newCluster, err = s.clusters.Allocate()
	if err != nil {
		return 0, 0, err
	}

	zero := make([]byte, s.geometry.BytesPerCluster)
	if err := writeAt(s.image, s.geometry.ClusterOffset(newCluster), zero); err != nil {
		return 0, 0, err
	}

	if err := s.clusters.SetNext(tail, newCluster); err != nil {
		return 0, 0, err
	}

	return newCluster, tail, nil
}

// MarkDeleted rewrites entry's first byte as the deleted marker.
func (s *DirectoryScanner) MarkDeleted(entry Dirent) error {
	return writeAt(s.image, entry.offset, []byte{entryDeleted})
}

// LocateAndUpdateName rewrites the 11-byte short name of an existing entry.
// The entry's identity is determined by its stored offset, so callers
// always pass back an entry freshly obtained from Lookup or Enumerate.
func (s *DirectoryScanner) LocateAndUpdateName(entry Dirent, newName string) error {
	shortName := FormatShortName(newName)
	return writeAt(s.image, entry.offset, shortName[:])
}

// UpdateFileSize rewrites the 32-bit size field of an existing entry.
func (s *DirectoryScanner) UpdateFileSize(entry Dirent, newSize uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], newSize)
	return writeAt(s.image, entry.offset+28, buf[:])
}

// UpdateFirstCluster rewrites the split first-cluster field of an existing
// entry. A file created empty starts with first cluster 0; the first
// WriteAt to it allocates a chain and must patch this field in, or a
// later open would find the file permanently empty.
func (s *DirectoryScanner) UpdateFirstCluster(entry Dirent, firstCluster uint32) error {
	var high, low [2]byte
	binary.LittleEndian.PutUint16(high[:], uint16(firstCluster>>16))
	binary.LittleEndian.PutUint16(low[:], uint16(firstCluster))

	if err := writeAt(s.image, entry.offset+20, high[:]); err != nil {
		return err
	}
	return writeAt(s.image, entry.offset+26, low[:])
}

// InitializeDirectory writes the "." and ".." entries at the start of a
// freshly allocated directory cluster and zeroes the remainder, matching
// how a subdirectory is laid out the moment it's created.
func (s *DirectoryScanner) InitializeDirectory(dirCluster, parentCluster uint32) error {
	base := s.geometry.ClusterOffset(dirCluster)

	zero := make([]byte, s.geometry.BytesPerCluster)
	if err := writeAt(s.image, base, zero); err != nil {
		return err
	}

	dot := encodeDirent(FormatShortName("."), AttrDirectory, dirCluster, 0)
	if err := writeAt(s.image, base, dot); err != nil {
		return err
	}

	dotdot := encodeDirent(FormatShortName(".."), AttrDirectory, parentCluster, 0)
	return writeAt(s.image, base+DirentSize, dotdot)
}
