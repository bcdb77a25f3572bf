package metadata

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/bjyitu/aiexif/internal/jpeg"
	"github.com/bjyitu/aiexif/png"
)

// Format identifies the container an Image was decoded from.
type Format string

const (
	FormatPNG  Format = "PNG"
	FormatJPEG Format = "JPEG"
)

const (
	// PhotoshopField names the binary Photoshop resource block.
	PhotoshopField = "photoshop"
	// PhotoshopKey is the field name the decoded Photoshop block is merged under.
	PhotoshopKey = "Photoshop"
)

// ErrUnsupportedFormat is wrapped by ContainerError when the magic bytes match
// no supported container.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Fields maps metadata field names to their raw text.
type Fields map[string]string

// Image is the metadata view of one decoded image container.
type Image interface {
	Format() Format
	// HasTextChunks reports whether the container carried any native text fields.
	HasTextChunks() bool
	TextChunks() map[string]string
	// BinaryField returns an embedded binary block by name.
	BinaryField(name string) ([]byte, bool)
}

// ContainerError reports an image that could not be opened or decoded.
type ContainerError struct {
	Path string
	Op   string
	Err  error
}

func (e *ContainerError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

// Open reads and decodes the image at path.
func Open(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ContainerError{Path: path, Op: "open", Err: err}
	}
	img, err := Decode(data)
	if err != nil {
		var cerr *ContainerError
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	return img, nil
}

// Read decodes an image from r.
func Read(r io.Reader) (Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ContainerError{Op: "read", Err: err}
	}
	return Decode(data)
}

// Decode sniffs the container format from the magic bytes and decodes it.
func Decode(data []byte) (Image, error) {
	switch Sniff(data) {
	case FormatPNG:
		chunks, err := png.DecodeTextChunks(data)
		if err != nil {
			return nil, &ContainerError{Op: "decode", Err: err}
		}
		return &pngImage{chunks: chunks}, nil
	case FormatJPEG:
		f, err := jpeg.Decode(data)
		if err != nil {
			return nil, &ContainerError{Op: "decode", Err: err}
		}
		return &jpegImage{file: f, text: f.TextFields()}, nil
	default:
		return nil, &ContainerError{Op: "decode", Err: ErrUnsupportedFormat}
	}
}

// Sniff returns the container format of data, or "" when unknown.
func Sniff(data []byte) Format {
	switch {
	case png.IsPNG(data):
		return FormatPNG
	case jpeg.IsJPEG(data):
		return FormatJPEG
	default:
		return ""
	}
}

// Locate merges the native text chunks of img with any decodable binary
// metadata blocks. Invalid UTF-8 in a binary block is dropped.
func Locate(img Image) Fields {
	fields := make(Fields)
	if img.HasTextChunks() {
		maps.Copy(fields, img.TextChunks())
	}
	if raw, ok := img.BinaryField(PhotoshopField); ok {
		fields[PhotoshopKey] = strings.ToValidUTF8(string(raw), "")
	}
	return fields
}

// Load opens the image at path and locates its metadata fields.
func Load(path string) (Format, Fields, error) {
	img, err := Open(path)
	if err != nil {
		return "", nil, err
	}
	return img.Format(), Locate(img), nil
}

type pngImage struct {
	chunks map[string]string
}

func (p *pngImage) Format() Format                    { return FormatPNG }
func (p *pngImage) HasTextChunks() bool               { return len(p.chunks) > 0 }
func (p *pngImage) TextChunks() map[string]string     { return maps.Clone(p.chunks) }
func (p *pngImage) BinaryField(string) ([]byte, bool) { return nil, false }

type jpegImage struct {
	file *jpeg.File
	text map[string]string
}

func (j *jpegImage) Format() Format                { return FormatJPEG }
func (j *jpegImage) HasTextChunks() bool           { return len(j.text) > 0 }
func (j *jpegImage) TextChunks() map[string]string { return maps.Clone(j.text) }

func (j *jpegImage) BinaryField(name string) ([]byte, bool) {
	if name != PhotoshopField {
		return nil, false
	}
	return j.file.Photoshop()
}
