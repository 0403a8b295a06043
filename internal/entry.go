// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/starford/spacedupes/internal/finder"
	"github.com/starford/spacedupes/internal/hub"
)

// Run executes one detection pass with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{out: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.source == "" {
		return fmt.Errorf("source space is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. Stdout stays reserved for the report.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("endpoint", cfg.Hub.Endpoint),
		slog.Int("days", cfg.Detection.Days),
		slog.Bool("deep", cfg.Detection.Deep),
		slog.Int("workers", cfg.Detection.Workers),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Interrupts cancel the in-flight hub requests.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := hub.NewClient(hub.Options{
		Endpoint:    cfg.Hub.Endpoint,
		Token:       cfg.Hub.Token,
		PageSize:    cfg.Hub.PageSize,
		ListTimeout: cfg.Hub.ListTimeout(),
		RawTimeout:  cfg.Detection.FetchTimeout(),
	})

	lister := finder.ListerFunc(func(ctx context.Context) finder.SpaceIterator {
		return client.ListSpaces(ctx)
	})
	f := finder.New(lister, client, finder.Options{
		Days:    cfg.Detection.Days,
		Deep:    cfg.Detection.Deep,
		Workers: cfg.Detection.Workers,
	})

	ids, err := f.Find(ctx, app.source)
	if err != nil {
		return fmt.Errorf("find duplicated spaces: %w", err)
	}

	report(app.out, client.Endpoint(), app.source, cfg.Detection.Days, ids)
	return nil
}

// report prints the detection result: a summary line, then one URL per
// duplicated Space in listing order.
func report(w io.Writer, endpoint, source string, days int, ids []string) {
	if len(ids) == 0 {
		_, _ = color.New(color.FgYellow).Fprintf(w, "No public Spaces duplicated from %s in the last %d days.\n", source, days)
		return
	}
	_, _ = color.New(color.FgGreen).Fprintf(w, "Found %d Space(s) duplicated from %s in the last %d days:\n", len(ids), source, days)
	for _, id := range ids {
		fmt.Fprintf(w, "%s/spaces/%s\n", endpoint, id)
	}
}
