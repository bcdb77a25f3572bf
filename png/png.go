package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
)

// Signature is the eight byte header every PNG stream starts with.
var Signature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

// ErrNotPNG is returned when the data does not start with the PNG signature.
var ErrNotPNG = errors.New("file is not a valid PNG")

// Upper bound for a single inflated zTXt/iTXt payload.
const maxInflatedSize = 64 << 20

const (
	ChunkText           = "tEXt"
	ChunkCompressedText = "zTXt"
	ChunkInternational  = "iTXt"
	chunkImageData      = "IDAT"
)

// TextChunk is one decoded textual chunk.
type TextChunk struct {
	Type    string
	Keyword string
	Text    string
}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, Signature)
}

func ExtractTextChunks(filename string) (map[string]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return DecodeTextChunks(data)
}

// DecodeTextChunks returns keyword -> text for every textual chunk in data.
// A keyword that appears twice keeps the last value.
func DecodeTextChunks(data []byte) (map[string]string, error) {
	chunks, err := ReadTextChunks(data)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(chunks))
	for _, c := range chunks {
		result[c.Keyword] = c.Text
	}
	return result, nil
}

// ReadTextChunks walks the chunk list up to the first IDAT chunk and decodes
// tEXt, zTXt and iTXt chunks. Chunks that fail to decode are skipped and a
// truncated chunk ends the walk.
func ReadTextChunks(data []byte) ([]TextChunk, error) {
	if !IsPNG(data) {
		return nil, ErrNotPNG
	}

	var chunks []TextChunk
	offset := len(Signature)
	for offset+8 <= len(data) {
		length := binary.BigEndian.Uint32(data[offset : offset+4])
		// header (8) + data + CRC (4)
		if uint64(offset)+12+uint64(length) > uint64(len(data)) {
			break
		}
		chunkType := string(data[offset+4 : offset+8])
		body := data[offset+8 : offset+8+int(length)]

		var (
			chunk TextChunk
			err   error
		)
		switch chunkType {
		case ChunkText:
			chunk, err = parseText(body)
		case ChunkCompressedText:
			chunk, err = parseCompressedText(body)
		case ChunkInternational:
			chunk, err = parseInternationalText(body)
		case chunkImageData:
			return chunks, nil
		default:
			offset += int(length) + 12
			continue
		}
		if err == nil {
			chunk.Type = chunkType
			chunks = append(chunks, chunk)
		}
		offset += int(length) + 12
	}
	return chunks, nil
}

func parseText(body []byte) (TextChunk, error) {
	keyword, text, ok := bytes.Cut(body, []byte{0})
	if !ok {
		return TextChunk{}, errors.New("tEXt: missing keyword separator")
	}
	return TextChunk{Keyword: string(keyword), Text: latin1(text)}, nil
}

func parseCompressedText(body []byte) (TextChunk, error) {
	keyword, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || len(rest) < 1 {
		return TextChunk{}, errors.New("zTXt: malformed header")
	}
	if rest[0] != 0 {
		return TextChunk{}, fmt.Errorf("zTXt: unknown compression method %d", rest[0])
	}
	text, err := inflate(rest[1:])
	if err != nil {
		return TextChunk{}, fmt.Errorf("zTXt %q: %w", keyword, err)
	}
	return TextChunk{Keyword: string(keyword), Text: latin1(text)}, nil
}

// iTXt layout: keyword 0 flag method language 0 translated-keyword 0 text
func parseInternationalText(body []byte) (TextChunk, error) {
	keyword, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || len(rest) < 2 {
		return TextChunk{}, errors.New("iTXt: malformed header")
	}
	compressed, method := rest[0] == 1, rest[1]
	rest = rest[2:]
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return TextChunk{}, errors.New("iTXt: missing language tag")
	}
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return TextChunk{}, errors.New("iTXt: missing translated keyword")
	}
	if compressed {
		if method != 0 {
			return TextChunk{}, fmt.Errorf("iTXt: unknown compression method %d", method)
		}
		text, err := inflate(rest)
		if err != nil {
			return TextChunk{}, fmt.Errorf("iTXt %q: %w", keyword, err)
		}
		rest = text
	}
	return TextChunk{Keyword: string(keyword), Text: string(rest)}, nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open zlib stream: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxInflatedSize))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

// tEXt is Latin-1 by definition, but most generators write UTF-8 into it
// anyway. Valid UTF-8 is kept as is.
func latin1(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
