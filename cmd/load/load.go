package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bjyitu/aiexif/internal/database"
	"github.com/bjyitu/aiexif/internal/extract"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg"}

type loader struct {
	workers   int
	batchSize int
	out       io.Writer
}

type summary struct {
	found, skipped, processed, failed int
}

func getImagePaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(d.Name()))) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", root)
	}
	return paths, nil
}

func (l loader) loadRoot(ctx context.Context, root, dbPath string) error {
	paths, err := getImagePaths(root)
	if err != nil {
		return fmt.Errorf("error getting image paths: %w", err)
	}
	slog.Debug("opening store", "path", dbPath, "driver", database.DriverFor(dbPath))
	return database.WithDB(dbPath, func(s *database.Store) error {
		_, err := l.loadPaths(ctx, paths, s)
		return err
	})
}

func (l loader) loadPaths(ctx context.Context, paths []string, s *database.Store) (summary, error) {
	sum := summary{found: len(paths)}

	existingPaths, err := s.ExistingPaths(ctx)
	if err != nil {
		return sum, fmt.Errorf("error retrieving existing files: %w", err)
	}

	var filesToProcess []string
	for _, path := range paths {
		if _, exists := existingPaths[path]; !exists {
			filesToProcess = append(filesToProcess, path)
		}
	}
	sum.skipped = len(paths) - len(filesToProcess)
	fmt.Fprintf(l.out, "Found %d files, skipping %d already loaded files, processing %d new files\n",
		len(paths), sum.skipped, len(filesToProcess))

	if len(filesToProcess) == 0 {
		fmt.Fprintln(l.out, "All files are already loaded in the database.")
		return sum, nil
	}

	numWorkers := max(l.workers, 1)
	batchSize := max(l.batchSize, 1)
	filesCh := make(chan string, numWorkers)
	resultsCh := make(chan database.Record)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	worker := func() {
		defer wg.Done()
		for path := range filesCh {
			res, readErr := extract.File(path)
			if readErr != nil {
				slog.Warn("error processing file", "path", path, "error", readErr)
			}
			rec, err := database.NewRecord(path, res, readErr)
			if err != nil {
				slog.Warn("error encoding record", "path", path, "error", err)
				rec = database.Record{Path: path, Error: err.Error()}
			}
			resultsCh <- rec
		}
	}
	for range numWorkers {
		go worker()
	}

	go func() {
		defer close(filesCh)
		for _, p := range filesToProcess {
			select {
			case filesCh <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	flush := func(batch []database.Record) {
		// Extracted files are stored even after an interrupt.
		if err := s.InsertBatch(context.WithoutCancel(ctx), batch); err != nil {
			slog.Error("failed to insert batch into db", "size", len(batch), "error", err)
		}
	}

	batch := make([]database.Record, 0, batchSize)
	for rec := range resultsCh {
		sum.processed++
		if rec.Error != "" {
			sum.failed++
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			flush(batch)
			batch = batch[:0]
		}
		fmt.Fprintf(l.out, "\rProcessed %d/%d new files", sum.processed, len(filesToProcess))
	}
	if len(batch) > 0 {
		flush(batch)
	}

	if err := ctx.Err(); err != nil {
		fmt.Fprintln(l.out, "\nInterrupted.")
		return sum, err
	}
	fmt.Fprintln(l.out, "\nDone.")
	return sum, nil
}
