package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bjyitu/aiexif/internal/config"
	"github.com/bjyitu/aiexif/internal/extract"
	"github.com/bjyitu/aiexif/internal/logger"
	"github.com/bjyitu/aiexif/internal/presenter"
)

const defaultDBName = "prompts.sqlite"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fromConfig := fs.String("config", "", "Path to config file")
	file := fs.String("file", "", "Path to a single image")
	dir := fs.String("dir", "", "Path to a directory containing images")
	dbpath := fs.String("db", "", "Path to a sqlite or duckdb database (use .sqlite/.db for SQLite, .duckdb for DuckDB)")
	workers := fs.Int("workers", 0, "Number of extraction workers (default from config)")
	debug := fs.Bool("debug", false, "Log debug output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(*fromConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.Level()
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(logger.New(stderr, level))

	if *file != "" && *dir != "" {
		fs.Usage()
		return errors.New("please provide either a file or directory, not both")
	}
	if *file != "" {
		return parseFileCommand(*file, stdout)
	}

	var roots []string
	switch {
	case *dir != "":
		roots = []string{*dir}
	case len(cfg.PromptExtractPaths()) > 0:
		roots = cfg.PromptExtractPaths()
	default:
		fs.Usage()
		return errors.New("missing file or directory")
	}

	l := loader{
		workers:   cfg.WorkerCount(),
		batchSize: cfg.Load.BatchSize,
		out:       stdout,
	}
	if *workers > 0 {
		l.workers = *workers
	}
	for _, root := range roots {
		if err := l.loadRoot(ctx, root, resolveDBPath(*dbpath, cfg.DB.Path, root)); err != nil {
			return err
		}
	}
	return nil
}

// resolveDBPath prefers the flag, then the configured path, then a database
// next to the images.
func resolveDBPath(flagPath, cfgPath, root string) string {
	switch {
	case flagPath != "":
		return flagPath
	case cfgPath != "":
		return cfgPath
	default:
		return filepath.Join(root, defaultDBName)
	}
}

func parseFileCommand(path string, stdout io.Writer) error {
	res, err := extract.File(path)
	if err != nil {
		return fmt.Errorf("error parsing file: %w", err)
	}
	return presenter.Render(stdout, res, presenter.FormatText)
}
