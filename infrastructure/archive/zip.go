// Package archive reads zipped tabular datasets as streams of rows.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/luminate-data/leadsearch/domain/lead"
)

// ErrUnsupportedFormat indicates a member whose extension has no reader.
var ErrUnsupportedFormat = errors.New("unsupported member format")

// RowReader streams records from one archive member. Next returns io.EOF
// when the member is exhausted.
type RowReader interface {
	Columns() []string
	Next() (lead.Record, error)
	Close() error
}

// Zip is an opened dataset archive.
type Zip struct {
	rc   *zip.ReadCloser
	path string
}

// OpenZip opens a zip archive on disk.
func OpenZip(archivePath string) (*Zip, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	return &Zip{rc: rc, path: archivePath}, nil
}

// Close closes the underlying archive.
func (z *Zip) Close() error {
	return z.rc.Close()
}

// Members returns the tabular members whose base name matches the glob
// pattern, sorted by name so runs visit files in a stable order. An empty
// pattern matches every member.
func (z *Zip) Members(pattern string) ([]*Member, error) {
	if pattern == "" {
		pattern = "*"
	}

	var members []*Member
	for _, f := range z.rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		if strings.HasPrefix(base, ".") {
			// Hidden metadata entries (e.g. __MACOSX resource forks).
			continue
		}
		ok, err := path.Match(pattern, base)
		if err != nil {
			return nil, fmt.Errorf("invalid member pattern %q: %w", pattern, err)
		}
		if ok {
			members = append(members, &Member{file: f})
		}
	}

	sort.Slice(members, func(i, j int) bool { return members[i].Name() < members[j].Name() })
	return members, nil
}

// Member is one file inside the archive.
type Member struct {
	file *zip.File
}

// Name returns the member's path inside the archive.
func (m *Member) Name() string {
	return m.file.Name
}

// Rows opens the member as a row stream, choosing the reader by file
// extension.
func (m *Member) Rows() (RowReader, error) {
	rc, err := m.file.Open()
	if err != nil {
		return nil, fmt.Errorf("open member %s: %w", m.file.Name, err)
	}

	switch strings.ToLower(path.Ext(m.file.Name)) {
	case ".csv":
		return newCSVReader(rc)
	case ".xlsx":
		return newXLSXReader(rc)
	default:
		_ = rc.Close()
		return nil, errors.Join(ErrUnsupportedFormat, fmt.Errorf("member %s", m.file.Name))
	}
}
