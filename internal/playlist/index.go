package playlist

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/config"
	"github.com/jscyril/dmx_media_trigger/internal/platform/logger"
	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
)

// TitleReader returns a display title for a media file
type TitleReader interface {
	Title(path string) string
}

// Index resolves program keys to playable entries. It is read-only once built.
type Index struct {
	entries map[api.ProgramKey]api.PlaylistEntry
	ordered []api.PlaylistEntry
}

type buildOptions struct {
	log        *slog.Logger
	extensions []string
	titles     TitleReader
}

// Option configures Build
type Option func(*buildOptions)

// WithLogger sets the logger used for dropped-entry warnings
func WithLogger(log *slog.Logger) Option {
	return func(o *buildOptions) { o.log = log }
}

// WithExtensions sets the file extensions considered valid
func WithExtensions(exts []string) Option {
	return func(o *buildOptions) { o.extensions = exts }
}

// WithTitles sets the reader used to fill entry titles. An empty title
// keeps the file stem.
func WithTitles(r TitleReader) Option {
	return func(o *buildOptions) { o.titles = r }
}

// Build resolves every configured file, dropping the ones that do not exist.
// Programs are enumerated in ascending id order and files in list order; the
// position of each kept entry is its index in that enumeration.
func Build(programs config.Playlist, opts ...Option) (*Index, error) {
	o := buildOptions{
		log:        logger.Discard(),
		extensions: config.DefaultExtensions,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ids := make([]int, 0, len(programs))
	for id := range programs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	idx := &Index{entries: make(map[api.ProgramKey]api.PlaylistEntry)}

	for _, id := range ids {
		program := programs[id]
		if id < 0 {
			return nil, playerrors.NewConfigError(id, "negative program id")
		}
		if program.Dir == "" {
			return nil, playerrors.NewConfigError(id, "no 'dir' key")
		}
		if program.Files == nil {
			return nil, playerrors.NewConfigError(id, "no 'files' key")
		}
		mode, ok := api.ParsePlayMode(program.PlayMode)
		if !ok {
			return nil, playerrors.NewConfigError(id, "unsupported playmode "+program.PlayMode)
		}
		dir, err := config.ExpandPath(program.Dir)
		if err != nil {
			return nil, &playerrors.ConfigError{Program: id, Reason: "bad dir", Err: err}
		}

		for sub, name := range program.Files {
			key := api.ProgramKey{Program: id, SubProgram: sub}
			path := filepath.Join(dir, name)

			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				o.log.Warn("media file does not exist", "file", path, "key", key.String())
				continue
			}
			if !hasExtension(path, o.extensions) {
				o.log.Warn("media file does not have a valid extension", "file", path, "key", key.String())
			}

			entry := api.PlaylistEntry{
				Key:      key,
				Path:     path,
				Mode:     mode,
				Position: len(idx.ordered),
				Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			}
			if o.titles != nil {
				if title := o.titles.Title(path); title != "" {
					entry.Title = title
				}
			}

			o.log.Debug("media file found", "file", path, "key", key.String(), "position", entry.Position)
			idx.entries[key] = entry
			idx.ordered = append(idx.ordered, entry)
		}
	}

	return idx, nil
}

// Lookup returns the entry for key
func (i *Index) Lookup(key api.ProgramKey) (api.PlaylistEntry, bool) {
	entry, ok := i.entries[key]
	return entry, ok
}

// Entries returns a copy of all entries in position order
func (i *Index) Entries() []api.PlaylistEntry {
	out := make([]api.PlaylistEntry, len(i.ordered))
	copy(out, i.ordered)
	return out
}

// Len returns the number of playable entries
func (i *Index) Len() int {
	return len(i.ordered)
}

// DirectoryPlaylist maps each file in a directory to its own program:
// file n becomes program n, sub-program 0.
func DirectoryPlaylist(dir string, files []string) config.Playlist {
	programs := make(config.Playlist, len(files))
	for n, name := range files {
		programs[n] = config.Program{Dir: dir, Files: []string{name}}
	}
	return programs
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
