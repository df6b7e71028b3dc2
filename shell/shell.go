// Package shell implements the interactive command loop that drives a
// mounted fat32.Volume. It is deliberately thin: each command parses its
// arguments, calls into fat32/openfiles, and prints a one-line result or
// error, the same division of labor the command-line reference this shell
// follows uses between its shell loop and its command implementations.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitri-k/fatshell/fat32"
	"github.com/dmitri-k/fatshell/openfiles"
)

// Shell holds everything one interactive session needs: the mounted
// volume, the current working directory (tracked as a cluster number
// rather than a path string), and the open file table.
type Shell struct {
	vol       *fat32.Volume
	cwd       uint32
	openFiles *openfiles.Table
	readOnly  bool

	out io.Writer
	err io.Writer
	in  *bufio.Scanner
}

// New builds a Shell over an already-mounted volume, reading commands from
// in and writing output to out/errOut.
func New(vol *fat32.Volume, in io.Reader, out, errOut io.Writer, readOnly bool) *Shell {
	return &Shell{
		vol:       vol,
		cwd:       vol.RootCluster(),
		openFiles: openfiles.New(),
		readOnly:  readOnly,
		out:       out,
		err:       errOut,
		in:        bufio.NewScanner(in),
	}
}

// Run reads commands until "exit" or end of input, dispatching each one in
// turn. It returns nil on a clean "exit"; a scanner error is returned
// as-is.
func (s *Shell) Run() error {
	for {
		fmt.Fprint(s.out, "fatshell> ")

		if !s.in.Scan() {
			return s.in.Err()
		}

		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command, args := args[0], args[1:]

		if command == "exit" {
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		}

		s.dispatch(command, args)
	}
}

func (s *Shell) dispatch(command string, args []string) {
	handler, ok := commandTable[command]
	if !ok {
		fmt.Fprintf(s.err, "Unknown command: %s\n", command)
		return
	}
	handler(s, args)
}

// commandTable maps each command name to its implementation. Kept as a
// package-level map rather than a switch so the REPL's unknown-command
// handling and the command set itself don't drift apart.
var commandTable = map[string]func(*Shell, []string){
	"info":   (*Shell).cmdInfo,
	"ls":     (*Shell).cmdLs,
	"cd":     (*Shell).cmdCd,
	"mkdir":  (*Shell).cmdMkdir,
	"creat":  (*Shell).cmdCreat,
	"open":   (*Shell).cmdOpen,
	"close":  (*Shell).cmdClose,
	"lsof":   (*Shell).cmdLsof,
	"size":   (*Shell).cmdSize,
	"lseek":  (*Shell).cmdLseek,
	"read":   (*Shell).cmdRead,
	"write":  (*Shell).cmdWrite,
	"rm":     (*Shell).cmdRm,
	"rmdir":  (*Shell).cmdRmdir,
	"rename": (*Shell).cmdRename,
}

// requireWritable prints an error and returns false if the volume was
// mounted read-only.
func (s *Shell) requireWritable(action string) bool {
	if s.readOnly {
		fmt.Fprintf(s.err, "Error: image is mounted read-only, cannot %s.\n", action)
		return false
	}
	return true
}

func sortedFileNames(files []openfiles.File) []openfiles.File {
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}
