// internal/safe/compression.go
package safe

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// CompressionOptions configures compression behavior
type CompressionOptions struct {
	Enabled bool
	// Minimum frame size in bytes before compressing
	MinSize int
	// Compression level (1=fastest, 4=best)
	Level int
}

// DefaultCompressionOptions provides sensible defaults
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		Enabled: true,
		MinSize: 512,
		Level:   2,
	}
}

// compressionManager pools zstd encoders and decoders
type compressionManager struct {
	opts CompressionOptions

	encoders sync.Pool
	decoders sync.Pool
}

func newCompressionManager(opts CompressionOptions) (*compressionManager, error) {
	level := zstd.EncoderLevel(opts.Level)
	if level == 0 {
		level = zstd.SpeedDefault
	}
	if level < zstd.SpeedFastest || level > zstd.SpeedBestCompression {
		return nil, fmt.Errorf("compression level %d out of range", opts.Level)
	}

	// Fail early on options the encoder rejects.
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	cm := &compressionManager{
		opts: opts,
		encoders: sync.Pool{
			New: func() interface{} {
				enc, _ := zstd.NewWriter(nil,
					zstd.WithEncoderLevel(level),
					zstd.WithEncoderConcurrency(1),
				)
				return enc
			},
		},
		decoders: sync.Pool{
			New: func() interface{} {
				dec, _ := zstd.NewReader(nil,
					zstd.WithDecoderConcurrency(1),
				)
				return dec
			},
		},
	}
	cm.encoders.Put(enc)

	return cm, nil
}

func (cm *compressionManager) shouldCompress(size int) bool {
	return cm.opts.Enabled && size >= cm.opts.MinSize
}

// compress returns frame unchanged when it is below the threshold; the bool
// reports whether compression was applied.
func (cm *compressionManager) compress(frame []byte) ([]byte, bool) {
	if !cm.shouldCompress(len(frame)) {
		return frame, false
	}

	enc := cm.encoders.Get().(*zstd.Encoder)
	defer cm.encoders.Put(enc)

	return enc.EncodeAll(frame, make([]byte, 0, len(frame)/2)), true
}

// decompress accepts both compressed and raw frames, so turning compression
// off never strands objects written while it was on.
func (cm *compressionManager) decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}

	dec := cm.decoders.Get().(*zstd.Decoder)
	defer cm.decoders.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}
