package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/artnet"
	"github.com/jscyril/dmx_media_trigger/internal/audio"
	"github.com/jscyril/dmx_media_trigger/internal/config"
	"github.com/jscyril/dmx_media_trigger/internal/dmx"
	"github.com/jscyril/dmx_media_trigger/internal/history"
	"github.com/jscyril/dmx_media_trigger/internal/library"
	"github.com/jscyril/dmx_media_trigger/internal/platform/logger"
	"github.com/jscyril/dmx_media_trigger/internal/platform/metrics"
	"github.com/jscyril/dmx_media_trigger/internal/playback"
	"github.com/jscyril/dmx_media_trigger/internal/playlist"
	"github.com/jscyril/dmx_media_trigger/internal/status"
	"github.com/jscyril/dmx_media_trigger/internal/ui"
	"github.com/jscyril/dmx_media_trigger/pkg/events"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.GetConfigPath(), "Path to the YAML configuration file")
	universe := flag.Int("universe", -1, "Art-Net universe to monitor (overrides config)")
	tui := flag.Bool("tui", false, "Show the terminal dashboard")
	check := flag.Bool("check", false, "Validate the configuration, print the media list and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *universe >= 0 {
		cfg.Universe = *universe
	}
	if cfg.Universe < 0 || cfg.Universe > 0x7FFF {
		return fmt.Errorf("universe %d out of range", cfg.Universe)
	}

	log, closeLog, err := setupLogger(cfg, *tui)
	if err != nil {
		return err
	}
	defer closeLog()

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index, err := buildIndex(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build media list: %w", err)
	}
	log.Info("media list built", "entries", index.Len())

	bindings := dmx.DefaultBindings()
	if cfg.Gate {
		bindings = dmx.GatedBindings()
	}

	m := metrics.New()
	bus := events.NewEventBus()
	defer bus.Close()

	engine := audio.NewEngine(audio.WithLogger(log), audio.WithEventBus(bus))
	engine.SetMediaList(index.Entries())
	if err := engine.SetVolume(cfg.Volume); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}

	ctrl := playback.New(engine, index,
		playback.WithLogger(log),
		playback.WithEventBus(bus),
		playback.WithObserver(m),
		playback.WithGate(cfg.Gate),
	)
	resolve := dmx.ResolverFunc(func() error {
		_, err := ctrl.Resolve()
		return err
	})
	monitor, err := dmx.NewMonitor(bindings, ctrl, resolve,
		dmx.WithLogger(log),
		dmx.WithObserver(m),
		dmx.WithEventBus(bus),
	)
	if err != nil {
		return fmt.Errorf("bind channels: %w", err)
	}

	if *check {
		printMediaList(os.Stdout, index.Entries(), bindings)
		return nil
	}

	receiver, err := artnet.Listen(cfg.Listen, log)
	if err != nil {
		return fmt.Errorf("listen for Art-Net: %w", err)
	}
	defer receiver.Close()
	receiver.Register(uint16(cfg.Universe), monitor.HandleFrame)
	log.Info("monitoring universe", "universe", cfg.Universe, "addr", receiver.Addr().String(), "gate", cfg.Gate)

	channels := make([]status.Channel, len(bindings))
	for i, b := range bindings {
		channels[i] = status.Channel{Channel: b.Channel, Command: b.Command.String()}
	}
	tracker := status.NewTracker(channels, index.Entries())
	trackerEvents := bus.SubscribeAll()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return receiver.Run(gctx) })
	g.Go(func() error {
		engine.Start(gctx)
		return nil
	})
	g.Go(func() error {
		defer bus.Unsubscribe(trackerEvents)
		tracker.Run(gctx, trackerEvents)
		return nil
	})

	if cfg.StatusAddr != "" {
		srv := status.NewServer(cfg.StatusAddr, tracker, m, log)
		g.Go(func() error { return srv.Run(gctx) })
	}

	if cfg.HistoryDSN != "" {
		rec, err := history.Open(ctx, cfg.HistoryDSN, log)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer rec.Close()
		resolved := bus.Subscribe(api.EventResolve)
		g.Go(func() error {
			defer bus.Unsubscribe(resolved)
			return rec.Run(gctx, resolved)
		})
	}

	if *tui {
		g.Go(func() error {
			defer cancel()
			return ui.Run(gctx, tracker, engine.Progress)
		})
	}

	err = g.Wait()
	log.Info("shutting down")
	return err
}

// setupLogger writes to stderr, or to the log file while the dashboard owns
// the terminal
func setupLogger(cfg *config.Config, tui bool) (*slog.Logger, func(), error) {
	if !tui {
		return logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr), func() {}, nil
	}
	if cfg.LogFile == "" {
		return logger.Discard(), func() {}, nil
	}
	path, err := config.ExpandPath(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.New(cfg.LogLevel, cfg.LogFormat, f), func() { _ = f.Close() }, nil
}

// buildIndex resolves the configured playlist. With no playlist and a media
// directory set, every supported file in the directory becomes a program.
func buildIndex(ctx context.Context, cfg *config.Config, log *slog.Logger) (*playlist.Index, error) {
	exts := decodableExtensions(cfg.Extensions, log)

	programs := cfg.Playlist
	var titles playlist.TitleReader = library.NewMetadataReader()
	if len(programs) == 0 && cfg.MediaDir != "" {
		dir, err := config.ExpandPath(cfg.MediaDir)
		if err != nil {
			return nil, err
		}
		media, err := library.NewScanner(0, exts).Scan(ctx, dir)
		if err != nil {
			return nil, err
		}
		log.Info("scanned media directory", "dir", dir, "files", len(media))
		programs = playlist.DirectoryPlaylist(dir, library.Names(media))
		titles = library.TitlesOf(media)
	}

	return playlist.Build(programs,
		playlist.WithLogger(log),
		playlist.WithExtensions(exts),
		playlist.WithTitles(titles),
	)
}

// decodableExtensions drops configured extensions the engine cannot decode
func decodableExtensions(exts []string, log *slog.Logger) []string {
	kept := make([]string, 0, len(exts))
	for _, ext := range exts {
		if !audio.IsSupported(ext) {
			log.Warn("extension cannot be decoded, ignoring", "extension", ext, "supported", audio.SupportedFormats())
			continue
		}
		kept = append(kept, ext)
	}
	return kept
}

func printMediaList(w io.Writer, entries []api.PlaylistEntry, bindings []dmx.Binding) {
	fmt.Fprintln(w, "Channels:")
	for _, b := range bindings {
		fmt.Fprintf(w, "  %3d  %s\n", b.Channel, b.Command)
	}
	fmt.Fprintf(w, "Media (%d):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(w, "  %3d  %-8s %-8s %s\n", e.Position, e.Key.String(), e.Mode, e.Path)
	}
}
