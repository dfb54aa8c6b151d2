package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Snapshot payload blobs are compressed at rest. Parts catalogs repeat
// field names heavily, so zstd pays for itself quickly.
var (
	blobEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	blobDecoder, _ = zstd.NewReader(nil)
)

// compressBlob encodes raw bytes with zstd. Nil stays nil so that
// NULL-able columns round-trip.
func compressBlob(raw []byte) []byte {
	if raw == nil {
		return nil
	}
	return blobEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

// decompressBlob reverses compressBlob.
func decompressBlob(blob []byte) ([]byte, error) {
	if blob == nil {
		return nil, nil
	}
	raw, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress blob: %w", err)
	}
	return raw, nil
}
