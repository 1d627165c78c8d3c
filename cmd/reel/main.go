package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mmcdole/reel/internal/config"
	"github.com/mmcdole/reel/internal/feed"
	"github.com/mmcdole/reel/internal/feedapi"
	"github.com/mmcdole/reel/internal/log"
	"github.com/mmcdole/reel/internal/media"
	"github.com/mmcdole/reel/internal/pagecache"
	"github.com/mmcdole/reel/internal/prefetch"
	"github.com/mmcdole/reel/internal/scroll"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/store"
	"github.com/mmcdole/reel/internal/tui"
	"github.com/mmcdole/reel/internal/tui/styles"
	"github.com/mmcdole/reel/internal/window"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var clearCache bool
	var ownerID int64
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&clearCache, "clear-cache", false, "remove the on-disk page cache and exit")
	flag.Int64Var(&ownerID, "owner", 0, "feed owner to browse (overrides config)")
	flag.Parse()

	if showVersion {
		fmt.Printf("reel %s\n", Version)
		return
	}

	if clearCache {
		if err := config.ClearCache(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("cache cleared")
		return
	}

	if err := run(ownerID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ownerID int64) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting reel", "version", Version)

	if !cfg.IsConfigured() {
		return fmt.Errorf("no content endpoint configured; set server.endpoint in config.yaml or REEL_SERVER_ENDPOINT")
	}
	if ownerID == 0 {
		ownerID = cfg.Server.OwnerID
	}
	if ownerID == 0 {
		return fmt.Errorf("no feed owner; pass -owner or set server.owner_id")
	}

	client := feedapi.NewClient(cfg.Server.Endpoint, cfg.Server.Timeout, logger)

	pageStore, err := store.NewPageStore(config.GetCachePath(), cfg.Server.Endpoint)
	if err != nil {
		// Memory-only fallback: a broken disk cache never blocks startup
		logger.Warn("disk page store unavailable", "error", err)
		pageStore, _ = store.NewPageStore("", cfg.Server.Endpoint)
	}
	defer pageStore.Close()

	cache := pagecache.New(client, pageStore, cfg.Engine.CacheTTL, cfg.Engine.MaxCacheEntries, logger)
	prefetcher := prefetch.New(cache, cfg.Engine.PageSize, cfg.Engine.PrefetchLookaheadPages, prefetch.DefaultFetchInterval, logger)
	coalescer := scroll.NewCoalescer(cfg.Engine.ScrollThrottle(), scroll.DefaultQuietPeriod)
	calc := window.NewCalculator(1, cfg.Engine.Overscan)

	visibility := tui.NewVisibility()
	loader := media.NewHTTPLoader(logger)

	var program *tea.Program

	mediaMgr := media.NewManager(loader, visibility, media.Options{
		MaxConcurrent: cfg.Engine.MaxConcurrentMediaLoads,
		IdleTimeout:   cfg.Engine.MediaIdleTimeout,
		OnError: func(itemID int64, err error) {
			if program != nil {
				program.Send(tui.MediaFailedMsg{ItemID: itemID, Err: err})
			}
		},
	}, logger)

	session := feed.NewSession(feed.Config{
		OwnerID:  ownerID,
		PageSize: cfg.Engine.PageSize,
	}, cache, mediaMgr, prefetcher, coalescer, calc, logger)
	defer session.Close()

	searchSvc := search.NewService(logger)

	styles.ApplyTheme(cfg.UI.Theme)
	model := tui.NewModel(session, mediaMgr, searchSvc, visibility, cfg.UI)

	// Seed the viewport from the terminal before the program's first
	// WindowSizeMsg arrives.
	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		model.Width = width
		model.Height = height
		model.Ready = true
		session.SetViewport(1)
	}

	program = tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	session.OnChange(func() {
		program.Send(tui.FeedUpdatedMsg{})
	})

	logger.Info("starting TUI", "owner", ownerID)

	if _, err := program.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
