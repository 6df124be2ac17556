package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Metadata holds the tags of a media file that are worth displaying
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// MetadataReader extracts metadata from media files
type MetadataReader struct{}

// NewMetadataReader creates a new metadata reader
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// Read extracts metadata from a media file. Files without tags get the
// base name as title.
func (r *MetadataReader) Read(filePath string) (Metadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Metadata{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	fallback := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	m, err := tag.ReadFrom(file)
	if err != nil {
		return Metadata{Title: fallback}, nil
	}

	return Metadata{
		Title:  getOrDefault(m.Title(), fallback),
		Artist: m.Artist(),
		Album:  m.Album(),
	}, nil
}

// Title returns a display title for filePath, never failing
func (r *MetadataReader) Title(filePath string) string {
	m, err := r.Read(filePath)
	if err != nil {
		return filepath.Base(filePath)
	}
	if m.Artist != "" {
		return m.Artist + " - " + m.Title
	}
	return m.Title
}

// getOrDefault returns the value if non-empty, otherwise returns the default
func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
