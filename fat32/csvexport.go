package fat32

import (
	"github.com/gocarina/gocsv"
)

// ListingRow is one line of `ls -csv` output: a directory entry described
// in the columns a spreadsheet or script would want, rather than the
// fixed-width text the plain `ls` command prints.
type ListingRow struct {
	Name         string `csv:"name"`
	Type         string `csv:"type"`
	SizeBytes    uint32 `csv:"size_bytes"`
	FirstCluster uint32 `csv:"first_cluster"`
}

// NewListingRows converts decoded directory entries into ListingRows,
// skipping the "." and ".." entries every directory carries.
func NewListingRows(entries []Dirent) []ListingRow {
	rows := make([]ListingRow, 0, len(entries))
	for _, entry := range entries {
		if entry.ShortName == "." || entry.ShortName == ".." {
			continue
		}

		entryType := "file"
		if entry.IsDir() {
			entryType = "dir"
		}

		rows = append(rows, ListingRow{
			Name:         entry.ShortName,
			Type:         entryType,
			SizeBytes:    entry.Size,
			FirstCluster: entry.FirstCluster,
		})
	}
	return rows
}

// MarshalListing renders rows as CSV text, header included.
func MarshalListing(rows []ListingRow) (string, error) {
	return gocsv.MarshalString(rows)
}

// OpenFileRow is one line of `lsof -csv` output: a single entry from the
// open file table.
type OpenFileRow struct {
	Handle int    `csv:"handle"`
	Name   string `csv:"name"`
	Mode   string `csv:"mode"`
	Offset int64  `csv:"offset"`
}

// MarshalOpenFiles renders rows as CSV text, header included.
func MarshalOpenFiles(rows []OpenFileRow) (string, error) {
	return gocsv.MarshalString(rows)
}
