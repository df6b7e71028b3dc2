package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	fserrors "github.com/dmitri-k/fatshell/errors"
	"github.com/dmitri-k/fatshell/fat32"
	"github.com/dmitri-k/fatshell/openfiles"
)

// errorIsSentinel reports whether err was derived from sentinel, looking
// through the message-wrapping customDriverError adds.
func errorIsSentinel(err error, sentinel fserrors.FatError) bool {
	return errors.Is(err, sentinel)
}

func (s *Shell) cmdInfo(_ []string) {
	geo := s.vol.Geometry
	numFATEntries := geo.FATSize * uint32(geo.BytesPerSector) / 4
	sizeOfImage := uint64(geo.TotalSectors) * uint64(geo.BytesPerSector)

	fmt.Fprintf(s.out, "Position of root cluster (cluster #): %d\n", geo.RootCluster)
	fmt.Fprintf(s.out, "Bytes per sector: %d\n", geo.BytesPerSector)
	fmt.Fprintf(s.out, "Sectors per cluster: %d\n", geo.SectorsPerCluster)
	fmt.Fprintf(s.out, "Total # of clusters in data region: %d\n", geo.TotalClusters)
	fmt.Fprintf(s.out, "# of entries in one FAT: %d\n", numFATEntries)
	fmt.Fprintf(s.out, "Size of image (in bytes): %d\n", sizeOfImage)
}

func (s *Shell) cmdLs(args []string) {
	entries, err := s.vol.Dirs.Enumerate(s.cwd)
	if err != nil {
		fmt.Fprintf(s.err, "Error: %s\n", err)
		return
	}

	if len(args) == 1 && args[0] == "-csv" {
		out, err := fat32.MarshalListing(fat32.NewListingRows(entries))
		if err != nil {
			fmt.Fprintf(s.err, "Error: %s\n", err)
			return
		}
		fmt.Fprint(s.out, out)
		return
	}

	for _, entry := range entries {
		fmt.Fprintln(s.out, entry.ShortName)
	}
}

func (s *Shell) cmdCd(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.err, "Error: 'cd' command requires a directory name.")
		return
	}
	dirname := args[0]

	if dirname == "." {
		return
	}

	entry, err := s.vol.Dirs.Lookup(s.cwd, dirname)
	if err != nil {
		if dirname == ".." {
			fmt.Fprintln(s.err, "Error: Parent directory not found.")
		} else {
			fmt.Fprintf(s.err, "Error: Directory '%s' not found.\n", dirname)
		}
		return
	}
	if !entry.IsDir() {
		fmt.Fprintf(s.err, "Error: Directory '%s' not found.\n", dirname)
		return
	}

	s.cwd = entry.FirstCluster
}

func (s *Shell) cmdMkdir(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.err, "Error: 'mkdir' command requires a directory name.")
		return
	}
	if !s.requireWritable("create a directory") {
		return
	}
	dirname := args[0]

	if err := s.vol.Lifecycle.CreateDirectory(s.cwd, dirname); err != nil {
		if errorIsSentinel(err, fserrors.ErrExists) {
			fmt.Fprintf(s.err, "Error: Directory '%s' already exists.\n", dirname)
		} else {
			fmt.Fprintf(s.err, "Error: %s\n", err)
		}
		return
	}
	fmt.Fprintf(s.out, "Directory '%s' created.\n", dirname)
}

func (s *Shell) cmdCreat(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.err, "Error: 'creat' command requires a file name.")
		return
	}
	if !s.requireWritable("create a file") {
		return
	}
	filename := args[0]

	if err := s.vol.Lifecycle.CreateFile(s.cwd, filename); err != nil {
		if errorIsSentinel(err, fserrors.ErrExists) {
			fmt.Fprintf(s.err, "Error: File '%s' already exists.\n", filename)
		} else {
			fmt.Fprintf(s.err, "Error: %s\n", err)
		}
		return
	}
	fmt.Fprintf(s.out, "File '%s' created.\n", filename)
}

func (s *Shell) cmdOpen(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.err, "Error: 'open' command requires a filename and flags.")
		return
	}
	filename, flags := args[0], args[1]

	if s.openFiles.IsOpen(filename) {
		fmt.Fprintf(s.err, "Error: File '%s' is already open.\n", filename)
		return
	}

	mode, err := openfiles.ParseMode(flags)
	if err != nil {
		fmt.Fprintf(s.err, "Error: Invalid mode '%s'.\n", flags)
		return
	}
	if mode.CanWrite() && !s.requireWritable("open a file for writing") {
		return
	}

	entry, err := s.vol.Dirs.Lookup(s.cwd, filename)
	if err != nil || entry.IsDir() {
		fmt.Fprintf(s.err, "Error: File '%s' does not exist.\n", filename)
		return
	}

	if err := s.openFiles.Open(openfiles.File{
		Name:         filename,
		Mode:         mode,
		FirstCluster: entry.FirstCluster,
		Size:         entry.Size,
	}); err != nil {
		fmt.Fprintf(s.err, "Error: %s\n", err)
		return
	}

	fmt.Fprintf(s.out, "File '%s' opened.\n", filename)
}

func (s *Shell) cmdClose(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.err, "Error: 'close' command requires a filename.")
		return
	}
	filename := args[0]

	if err := s.openFiles.Close(filename); err != nil {
		fmt.Fprintf(s.err, "Error: File '%s' is not open.\n", filename)
		return
	}
	fmt.Fprintf(s.out, "File '%s' closed.\n", filename)
}

func (s *Shell) cmdLsof(args []string) {
	files := sortedFileNames(s.openFiles.List())

	if len(args) == 1 && args[0] == "-csv" {
		rows := make([]fat32.OpenFileRow, len(files))
		for i, f := range files {
			rows[i] = fat32.OpenFileRow{Handle: i, Name: f.Name, Mode: f.Mode.String(), Offset: int64(f.Offset)}
		}
		out, err := fat32.MarshalOpenFiles(rows)
		if err != nil {
			fmt.Fprintf(s.err, "Error: %s\n", err)
			return
		}
		fmt.Fprint(s.out, out)
		return
	}

	if len(files) == 0 {
		fmt.Fprintln(s.out, "No files are open.")
		return
	}
	for i, f := range files {
		fmt.Fprintf(s.out, "%d: %s Mode: %s Offset: %d\n", i, f.Name, f.Mode, f.Offset)
	}
}

func (s *Shell) cmdSize(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.err, "Error: 'size' command requires a filename.")
		return
	}
	filename := args[0]

	entry, err := s.vol.Dirs.Lookup(s.cwd, filename)
	if err != nil || entry.IsDir() {
		fmt.Fprintf(s.err, "Error: File '%s' does not exist or is a directory.\n", filename)
		return
	}
	fmt.Fprintf(s.out, "Size of '%s': %d bytes\n", filename, entry.Size)
}

func (s *Shell) cmdLseek(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.err, "Error: 'lseek' command requires a filename and offset.")
		return
	}
	filename, offsetStr := args[0], args[1]

	offset, err := strconv.ParseUint(offsetStr, 10, 32)
	if err != nil {
		fmt.Fprintf(s.err, "Error: Invalid offset '%s'.\n", offsetStr)
		return
	}

	file, err := s.openFiles.Get(filename)
	if err != nil {
		fmt.Fprintf(s.err, "Error: File '%s' is not open.\n", filename)
		return
	}
	if uint32(offset) > file.Size {
		fmt.Fprintln(s.err, "Error: Offset exceeds file size.")
		return
	}

	file.Offset = uint32(offset)
	fmt.Fprintf(s.out, "Offset of '%s' set to %d.\n", filename, offset)
}

func (s *Shell) cmdRead(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.err, "Error: 'read' command requires a filename and size.")
		return
	}
	filename, sizeStr := args[0], args[1]

	size, err := strconv.ParseUint(sizeStr, 10, 32)
	if err != nil {
		fmt.Fprintf(s.err, "Error: Invalid size '%s'.\n", sizeStr)
		return
	}

	file, err := s.openFiles.Get(filename)
	if err != nil {
		fmt.Fprintf(s.err, "Error: File '%s' is not open.\n", filename)
		return
	}
	if !file.Mode.CanRead() {
		fmt.Fprintf(s.err, "Error: File '%s' is not open for reading.\n", filename)
		return
	}

	var chain []uint32
	if file.FirstCluster != 0 {
		chain, err = s.vol.Clusters.ChainFrom(file.FirstCluster)
		if err != nil {
			fmt.Fprintf(s.err, "Error: %s\n", err)
			return
		}
	}

	if file.Offset >= file.Size {
		size = 0
	} else if remaining := uint64(file.Size - file.Offset); size > remaining {
		size = remaining
	}

	buf := make([]byte, size)
	n, err := s.vol.Files.ReadAt(chain, int64(file.Offset), buf)
	if err != nil {
		fmt.Fprintf(s.err, "Error: %s\n", err)
		return
	}
	file.Offset += uint32(n)

	fmt.Fprintln(s.out, string(buf[:n]))
}

func (s *Shell) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.err, "Error: 'write' command requires a filename and string.")
		return
	}
	filename := args[0]
	text := strings.Trim(strings.Join(args[1:], " "), `"`)
	if text == "" {
		fmt.Fprintln(s.err, "Error: 'write' command requires a string to write.")
		return
	}
	if !s.requireWritable("write to a file") {
		return
	}

	file, err := s.openFiles.Get(filename)
	if err != nil {
		fmt.Fprintf(s.err, "Error: File '%s' is not open.\n", filename)
		return
	}
	if !file.Mode.CanWrite() {
		fmt.Fprintf(s.err, "Error: File '%s' is not open for writing.\n", filename)
		return
	}

	var chain []uint32
	if file.FirstCluster != 0 {
		chain, err = s.vol.Clusters.ChainFrom(file.FirstCluster)
		if err != nil {
			fmt.Fprintf(s.err, "Error: %s\n", err)
			return
		}
	}

	data := []byte(text)
	newChain, err := s.vol.Files.WriteAt(chain, int64(file.Offset), data)
	if err != nil {
		fmt.Fprintf(s.err, "Error: %s\n", err)
		return
	}

	entry, err := s.vol.Dirs.Lookup(s.cwd, filename)
	if err != nil {
		fmt.Fprintf(s.err, "Error: %s\n", err)
		return
	}
	if file.FirstCluster == 0 && len(newChain) > 0 {
		file.FirstCluster = newChain[0]
		if err := s.vol.Dirs.UpdateFirstCluster(entry, file.FirstCluster); err != nil {
			fmt.Fprintf(s.err, "Error: %s\n", err)
			return
		}
	}

	file.Offset += uint32(len(data))
	if file.Offset > file.Size {
		file.Size = file.Offset
		if err := s.vol.Dirs.UpdateFileSize(entry, file.Size); err != nil {
			fmt.Fprintf(s.err, "Error: %s\n", err)
			return
		}
	}

	fmt.Fprintf(s.out, "Wrote to '%s'.\n", filename)
}

func (s *Shell) cmdRm(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.err, "Error: 'rm' command requires a filename.")
		return
	}
	filename := args[0]
	if !s.requireWritable("remove a file") {
		return
	}

	if s.openFiles.IsOpen(filename) {
		fmt.Fprintf(s.err, "Error: File '%s' is open.\n", filename)
		return
	}

	err := s.vol.Lifecycle.Remove(s.cwd, filename)
	switch {
	case err == nil:
		fmt.Fprintf(s.out, "File '%s' deleted.\n", filename)
	case errorIsSentinel(err, fserrors.ErrIsADirectory):
		fmt.Fprintf(s.err, "Error: '%s' is a directory.\n", filename)
	case errorIsSentinel(err, fserrors.ErrNotFound):
		fmt.Fprintf(s.err, "Error: File '%s' does not exist.\n", filename)
	default:
		fmt.Fprintf(s.err, "Error: %s\n", err)
	}
}

func (s *Shell) cmdRmdir(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.err, "Error: 'rmdir' command requires a directory name.")
		return
	}
	dirname := args[0]

	if dirname == "." || dirname == ".." {
		fmt.Fprintln(s.err, "Error: Cannot remove special directories '.' or '..'.")
		return
	}
	if !s.requireWritable("remove a directory") {
		return
	}
	if s.openFiles.IsOpen(dirname) {
		fmt.Fprintf(s.err, "Error: File '%s' is open.\n", dirname)
		return
	}

	err := s.vol.Lifecycle.RemoveDirectory(s.cwd, dirname)
	switch {
	case err == nil:
		fmt.Fprintf(s.out, "Directory '%s' removed.\n", dirname)
	case errorIsSentinel(err, fserrors.ErrNotADirectory):
		fmt.Fprintf(s.err, "Error: '%s' is not a directory.\n", dirname)
	case errorIsSentinel(err, fserrors.ErrDirectoryNotEmpty):
		fmt.Fprintf(s.err, "Error: Directory '%s' is not empty.\n", dirname)
	case errorIsSentinel(err, fserrors.ErrNotFound):
		fmt.Fprintf(s.err, "Error: Directory '%s' does not exist.\n", dirname)
	default:
		fmt.Fprintf(s.err, "Error: %s\n", err)
	}
}

func (s *Shell) cmdRename(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.err, "Error: 'rename' command requires old and new filenames.")
		return
	}
	oldName, newName := args[0], args[1]

	if oldName == "." || oldName == ".." {
		fmt.Fprintln(s.err, "Error: Cannot rename special directories '.' or '..'.")
		return
	}
	if !s.requireWritable("rename a file") {
		return
	}
	if s.openFiles.IsOpen(oldName) {
		fmt.Fprintf(s.err, "Error: File '%s' must be closed before renaming.\n", oldName)
		return
	}

	err := s.vol.Lifecycle.Rename(s.cwd, oldName, newName)
	switch {
	case err == nil:
		fmt.Fprintf(s.out, "'%s' renamed to '%s'.\n", oldName, newName)
	case errorIsSentinel(err, fserrors.ErrExists):
		fmt.Fprintf(s.err, "Error: A file or directory named '%s' already exists.\n", newName)
	case errorIsSentinel(err, fserrors.ErrNotFound):
		fmt.Fprintf(s.err, "Error: File or directory '%s' does not exist.\n", oldName)
	default:
		fmt.Fprintf(s.err, "Error: %s\n", err)
	}
}
