package testutil

import (
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/bjyitu/aiexif/png"

	"github.com/stretchr/testify/require"
)

// PNG builds a PNG carrying one tEXt chunk per keyword/text pair, followed by
// an empty IDAT and IEND.
func PNG(pairs ...string) []byte {
	out := append([]byte{}, png.Signature...)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = appendChunk(out, png.ChunkText, []byte(pairs[i]+"\x00"+pairs[i+1]))
	}
	out = appendChunk(out, "IDAT", nil)
	return appendChunk(out, "IEND", nil)
}

func appendChunk(out []byte, typ string, body []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, typ...)
	out = append(out, body...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(append([]byte(typ), body...)))
}

// WriteFile writes data under a fresh temp dir and returns the path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
