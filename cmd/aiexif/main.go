package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bjyitu/aiexif/internal/config"
	"github.com/bjyitu/aiexif/internal/extract"
	"github.com/bjyitu/aiexif/internal/logger"
	"github.com/bjyitu/aiexif/internal/metadata"
	"github.com/bjyitu/aiexif/internal/presenter"
)

var errUsage = errors.New("expected exactly one image path")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	format     string
	debug      bool
	imagePath  string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("aiexif", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.StringVar(&opts.format, "format", "", "Output format: text, json or yaml")
	fs.BoolVar(&opts.debug, "debug", false, "Log debug output to stderr")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: aiexif [flags] <image-path>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errUsage
	}
	opts.imagePath = fs.Arg(0)
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Level()
	if opts.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(logger.New(stderr, level))

	formatName := cfg.Output.Format
	if opts.format != "" {
		formatName = opts.format
	}
	format, err := presenter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	res, err := extract.File(opts.imagePath)
	if err != nil {
		var cerr *metadata.ContainerError
		if !errors.As(err, &cerr) {
			return err
		}
		slog.Debug("read failed", "path", opts.imagePath, "error", err)
		return presenter.RenderError(stdout, err, format)
	}
	return presenter.Render(stdout, res, format)
}
