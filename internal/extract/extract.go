// Package extract runs the locate, select and parse steps for one image.
package extract

import (
	"io"
	"log/slog"

	"github.com/bjyitu/aiexif/internal/metadata"
	"github.com/bjyitu/aiexif/internal/selector"
)

// File extracts the generation metadata of the image at path. Only container
// failures are returned as errors; missing metadata is a KindNotFound result.
func File(path string) (selector.Result, error) {
	img, err := metadata.Open(path)
	if err != nil {
		return selector.Result{}, err
	}
	return fromImage(path, img), nil
}

// Reader is File for an already open stream.
func Reader(r io.Reader) (selector.Result, error) {
	img, err := metadata.Read(r)
	if err != nil {
		return selector.Result{}, err
	}
	return fromImage("", img), nil
}

func fromImage(path string, img metadata.Image) selector.Result {
	fields := metadata.Locate(img)
	slog.Debug("located metadata", "path", path, "format", img.Format(), "fields", len(fields))
	res := selector.Extract(fields)
	slog.Debug("extracted", "path", path, "kind", res.Kind, "source", res.Source)
	return res
}
