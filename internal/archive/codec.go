package archive

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// pack encodes v as msgpack, compresses it with lz4 and returns the
// blake3 digest of the uncompressed encoding.
func pack(v interface{}) ([]byte, string, error) {
	raw, err := protocol.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("archive: encode: %w", err)
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	zw := lz4.NewWriter(buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, "", fmt.Errorf("archive: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("archive: compress: %w", err)
	}
	return bytes.Clone(buf.Bytes()), digestOf(raw), nil
}

func unpack(blob []byte, digest string, v interface{}) error {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(blob)))
	if err != nil {
		return fmt.Errorf("archive: decompress: %w", err)
	}
	if digestOf(raw) != digest {
		return ErrCorrupt
	}
	if err := protocol.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("archive: decode: %w", err)
	}
	return nil
}

func digestOf(raw []byte) string {
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}
