package playlist

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/config"
	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

type fixedTitles string

func (f fixedTitles) Title(path string) string { return string(f) + filepath.Base(path) }

func TestBuild_PositionsAndModes(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	touch(t, dirA, "a0.mp3", "a1.wav")
	touch(t, dirB, "b0.flac")

	idx, err := Build(config.Playlist{
		1: {Dir: dirB, Files: []string{"b0.flac"}, PlayMode: "repeat"},
		0: {Dir: dirA, Files: []string{"a0.mp3", "a1.wav"}, PlayMode: "loop"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("Len = %d, want 3", idx.Len())
	}

	tests := []struct {
		key      api.ProgramKey
		path     string
		mode     api.PlayMode
		position int
	}{
		{api.ProgramKey{Program: 0, SubProgram: 0}, filepath.Join(dirA, "a0.mp3"), api.PlayModeLoop, 0},
		{api.ProgramKey{Program: 0, SubProgram: 1}, filepath.Join(dirA, "a1.wav"), api.PlayModeLoop, 1},
		{api.ProgramKey{Program: 1, SubProgram: 0}, filepath.Join(dirB, "b0.flac"), api.PlayModeRepeat, 2},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			entry, ok := idx.Lookup(tt.key)
			if !ok {
				t.Fatal("entry missing")
			}
			if entry.Path != tt.path || entry.Mode != tt.mode || entry.Position != tt.position {
				t.Errorf("entry = %+v", entry)
			}
		})
	}

	entries := idx.Entries()
	for i, e := range entries {
		if e.Position != i {
			t.Errorf("Entries()[%d].Position = %d", i, e.Position)
		}
	}
}

func TestBuild_DropsMissingFilesWithWarning(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "present.mp3")

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	idx, err := Build(config.Playlist{
		0: {Dir: dir, Files: []string{"missing.mp3", "present.mp3"}},
	}, WithLogger(log))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := idx.Lookup(api.ProgramKey{Program: 0, SubProgram: 0}); ok {
		t.Error("missing file should be dropped")
	}
	entry, ok := idx.Lookup(api.ProgramKey{Program: 0, SubProgram: 1})
	if !ok {
		t.Fatal("present file should be kept under its list position")
	}
	if entry.Position != 0 {
		t.Errorf("Position = %d, want 0", entry.Position)
	}
	if entry.Mode != api.PlayModeDefault {
		t.Errorf("Mode = %q, want default", entry.Mode)
	}
	if !strings.Contains(buf.String(), "does not exist") {
		t.Errorf("expected warning, log was: %s", buf.String())
	}
}

func TestBuild_UnsupportedExtensionIsKept(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip.mkv")

	var buf bytes.Buffer
	idx, err := Build(config.Playlist{0: {Dir: dir, Files: []string{"clip.mkv"}}},
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Errorf("Len = %d, want 1", idx.Len())
	}
	if !strings.Contains(buf.String(), "valid extension") {
		t.Errorf("expected extension warning, log was: %s", buf.String())
	}
}

func TestBuild_MalformedProgram(t *testing.T) {
	tests := []struct {
		name    string
		program config.Program
	}{
		{"missing dir", config.Program{Files: []string{"a.mp3"}}},
		{"missing files", config.Program{Dir: "/tmp"}},
		{"bad playmode", config.Program{Dir: "/tmp", Files: []string{}, PlayMode: "shuffle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(config.Playlist{4: tt.program})
			if !errors.Is(err, playerrors.ErrConfiguration) {
				t.Fatalf("err = %v, want ErrConfiguration", err)
			}
			var cfgErr *playerrors.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Program != 4 {
				t.Errorf("err = %v, want ConfigError for program 4", err)
			}
		})
	}
}

func TestBuild_Titles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "song.mp3")

	idx, err := Build(config.Playlist{0: {Dir: dir, Files: []string{"song.mp3"}}}, WithTitles(fixedTitles("t:")))
	if err != nil {
		t.Fatal(err)
	}
	entry, _ := idx.Lookup(api.ProgramKey{})
	if entry.Title != "t:song.mp3" {
		t.Errorf("Title = %q", entry.Title)
	}
}

type noTitles struct{}

func (noTitles) Title(string) string { return "" }

func TestBuild_EmptyTitleKeepsStem(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "song.mp3")

	idx, err := Build(config.Playlist{0: {Dir: dir, Files: []string{"song.mp3"}}}, WithTitles(noTitles{}))
	if err != nil {
		t.Fatal(err)
	}
	entry, _ := idx.Lookup(api.ProgramKey{})
	if entry.Title != "song" {
		t.Errorf("Title = %q, want file stem", entry.Title)
	}
}

func TestDirectoryPlaylist(t *testing.T) {
	programs := DirectoryPlaylist("/media", []string{"a.mp3", "b.mp3"})
	if len(programs) != 2 {
		t.Fatalf("len = %d", len(programs))
	}
	if p := programs[1]; p.Dir != "/media" || len(p.Files) != 1 || p.Files[0] != "b.mp3" {
		t.Errorf("program 1 = %+v", p)
	}
}
