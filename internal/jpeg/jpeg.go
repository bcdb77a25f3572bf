// Package jpeg walks the marker segments of a JPEG stream and pulls out the
// segments that can carry generation metadata: comments, EXIF and Photoshop
// resource blocks.
package jpeg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrNotJPEG is returned when the data does not start with an SOI marker.
var ErrNotJPEG = errors.New("file is not a valid JPEG")

const (
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP1  = 0xE1
	markerAPP13 = 0xED
	markerCOM   = 0xFE
	markerTEM   = 0x01
)

var (
	exifHeader      = []byte("Exif\x00\x00")
	photoshopHeader = []byte("Photoshop 3.0\x00")
)

// Segment is a marker segment without its length prefix.
type Segment struct {
	Marker byte
	Data   []byte
}

// File is a parsed JPEG header section, up to the start of scan.
type File struct {
	Segments []Segment
}

// IsJPEG reports whether data starts with the SOI marker.
func IsJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == markerSOI && data[2] == 0xFF
}

// Decode walks the segments of data until SOS or EOI.
func Decode(data []byte) (*File, error) {
	if !IsJPEG(data) {
		return nil, ErrNotJPEG
	}

	f := &File{}
	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != 0xFF {
			return nil, fmt.Errorf("invalid JPEG marker 0x%02x at offset %d", data[offset], offset)
		}
		marker := data[offset+1]
		switch {
		case marker == 0xFF:
			// fill byte
			offset++
			continue
		case marker == markerSOS || marker == markerEOI:
			return f, nil
		case marker == markerTEM || (marker >= 0xD0 && marker <= 0xD7):
			offset += 2
			continue
		}

		length := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		if length < 2 || offset+2+length > len(data) {
			break
		}
		f.Segments = append(f.Segments, Segment{
			Marker: marker,
			Data:   data[offset+4 : offset+2+length],
		})
		offset += 2 + length
	}
	return f, nil
}

// Comments returns the payload of every COM segment in file order.
func (f *File) Comments() []string {
	var out []string
	for _, s := range f.Segments {
		if s.Marker == markerCOM {
			out = append(out, string(bytes.TrimRight(s.Data, "\x00")))
		}
	}
	return out
}

// Photoshop returns the resource block of the first Photoshop APP13 segment.
func (f *File) Photoshop() ([]byte, bool) {
	return f.find(markerAPP13, photoshopHeader)
}

// Exif returns the TIFF payload of the first EXIF APP1 segment.
func (f *File) Exif() ([]byte, bool) {
	return f.find(markerAPP1, exifHeader)
}

func (f *File) find(marker byte, header []byte) ([]byte, bool) {
	for _, s := range f.Segments {
		if s.Marker == marker && bytes.HasPrefix(s.Data, header) {
			return s.Data[len(header):], true
		}
	}
	return nil, false
}

// TextFields returns the textual metadata of the file keyed by the names the
// field selector looks for: Comment, UserComment and Description.
func (f *File) TextFields() map[string]string {
	fields := make(map[string]string)
	if comments := f.Comments(); len(comments) > 0 {
		fields["Comment"] = strings.Join(comments, "\n")
	}
	if tiff, ok := f.Exif(); ok {
		for k, v := range exifText(tiff) {
			fields[k] = v
		}
	}
	return fields
}
