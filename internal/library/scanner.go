package library

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
)

// Media is a supported file found in a media directory
type Media struct {
	Name  string
	Path  string
	Title string
}

// Scanner lists a media directory and reads tags using a worker pool
type Scanner struct {
	workers    int
	formats    []string
	metaReader *MetadataReader
}

// NewScanner creates a new directory scanner
func NewScanner(workers int, formats []string) *Scanner {
	if workers <= 0 {
		workers = 4 // Default worker count
	}
	return &Scanner{
		workers:    workers,
		formats:    formats,
		metaReader: NewMetadataReader(),
	}
}

// isSupported checks if a file format is supported
func (s *Scanner) isSupported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range s.formats {
		if ext == strings.ToLower(format) {
			return true
		}
	}
	return false
}

// Scan lists the supported files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]Media, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &playerrors.ScanError{Path: dir, Err: err}
	}

	files := make(chan string, len(entries))
	for _, e := range entries {
		if !e.IsDir() && s.isSupported(e.Name()) {
			files <- e.Name()
		}
	}
	close(files)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		found []Media
	)

	// Start worker pool
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range files {
				select {
				case <-ctx.Done():
					return
				default:
				}

				path := filepath.Join(dir, name)
				m := Media{Name: name, Path: path, Title: s.metaReader.Title(path)}

				mu.Lock()
				found = append(found, m)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

// Names returns the file names of media in order
func Names(media []Media) []string {
	names := make([]string, len(media))
	for i, m := range media {
		names[i] = m.Name
	}
	return names
}

// Titles maps media paths to the titles read during a scan
type Titles map[string]string

// TitlesOf indexes the titles of media by path
func TitlesOf(media []Media) Titles {
	t := make(Titles, len(media))
	for _, m := range media {
		t[m.Path] = m.Title
	}
	return t
}

// Title returns the scanned title of path, empty if it was not scanned
func (t Titles) Title(path string) string {
	return t[path]
}
