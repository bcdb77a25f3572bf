package jpeg

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/text/encoding/unicode"
)

// EXIF UserComment values start with an eight byte character code.
var (
	charsetASCII     = []byte("ASCII\x00\x00\x00")
	charsetUnicode   = []byte("UNICODE\x00")
	charsetJIS       = []byte("JIS\x00\x00\x00\x00\x00")
	charsetUndefined = []byte("\x00\x00\x00\x00\x00\x00\x00\x00")
)

// exifText reads UserComment and ImageDescription from a TIFF structured
// EXIF payload.
func exifText(tiff []byte) (fields map[string]string) {
	fields = make(map[string]string)
	// exif.Decode can panic on malformed IFD offsets.
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("exif decode panicked", "panic", r)
		}
	}()

	x, err := exif.Decode(bytes.NewReader(tiff))
	if err != nil {
		slog.Debug("exif decode failed", "error", err)
		return fields
	}

	if tag, err := x.Get(exif.UserComment); err == nil {
		if s, ok := DecodeUserComment(tag.Val); ok {
			fields["UserComment"] = s
		}
	}
	if tag, err := x.Get(exif.ImageDescription); err == nil {
		if s, err := tag.StringVal(); err == nil {
			if s = strings.TrimRight(s, "\x00"); strings.TrimSpace(s) != "" {
				fields["Description"] = s
			}
		}
	}
	return fields
}

// DecodeUserComment decodes an EXIF UserComment value. UNICODE payloads are
// UTF-16; the byte order is guessed from the first code unit and defaults to
// big endian. It reports false for empty comments.
func DecodeUserComment(val []byte) (string, bool) {
	var text string
	switch {
	case len(val) < 8:
		text = string(val)
	case bytes.HasPrefix(val, charsetUnicode):
		text = decodeUTF16(val[8:])
	case bytes.HasPrefix(val, charsetASCII),
		bytes.HasPrefix(val, charsetJIS),
		bytes.HasPrefix(val, charsetUndefined):
		text = string(val[8:])
	default:
		text = string(val)
	}
	text = strings.ToValidUTF8(strings.TrimRight(text, "\x00 "), "")
	if text == "" {
		return "", false
	}
	return text, true
}

func decodeUTF16(b []byte) string {
	endian := unicode.BigEndian
	if len(b) >= 2 && b[0] != 0 && b[1] == 0 {
		endian = unicode.LittleEndian
	}
	out, err := unicode.UTF16(endian, unicode.UseBOM).NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
