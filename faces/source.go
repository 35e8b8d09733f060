package faces

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnrollmentItem is one (label, image) pair of an enrollment source.
type EnrollmentItem struct {
	Label string
	Name  string // file name, row id, etc. - used in logs
	Open  func() (io.ReadCloser, error)
}

// EnrollmentSource enumerates the labelled reference images a gallery is built from.
type EnrollmentSource interface {
	Items(ctx context.Context) ([]EnrollmentItem, error)
}

var enrollmentExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// DirSource reads one image per identity from a directory, e.g. known_faces/alice.jpg -> "alice".
type DirSource struct {
	Dir string
}

// LabelFromFileName strips directory and extension: "known_faces/u42.jpeg" -> "u42".
func LabelFromFileName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Items lists the supported image files in file name order.
func (s DirSource) Items(ctx context.Context) ([]EnrollmentItem, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading enrollment directory %s: %w", s.Dir, err)
	}
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !enrollmentExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	items := make([]EnrollmentItem, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.Dir, name)
		items = append(items, EnrollmentItem{
			Label: LabelFromFileName(name),
			Name:  path,
			Open: func() (io.ReadCloser, error) {
				return os.Open(path)
			},
		})
	}
	return items, nil
}

// BytesItem builds an item from in-memory data.
func BytesItem(label string, data []byte) EnrollmentItem {
	return EnrollmentItem{
		Label: label,
		Name:  label,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// SliceSource is a fixed list of items.
type SliceSource []EnrollmentItem

func (s SliceSource) Items(ctx context.Context) ([]EnrollmentItem, error) {
	return s, nil
}
