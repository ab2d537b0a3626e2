// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how archived values are packed. The numeric value is
// written as the first byte of every stored record.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", byte(c))
	}
}

func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("invalid compression '%s'", s)
	}
}

func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Compression) UnmarshalText(data []byte) error {
	x, err := ParseCompression(string(data))
	if err != nil {
		return err
	}
	*c = x
	return nil
}

var errIncompressible = errors.New("incompressible")

// zstd coders are safe for concurrent use
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder: " + err.Error())
	}
}

// pack frames data as [tag][uvarint size][payload]. Data that does not
// shrink is stored uncompressed.
func pack(data []byte, c Compression) ([]byte, Compression, error) {
	var (
		payload []byte
		err     error
	)
	switch c {
	case CompressionNone:
		payload = data
	case CompressionLZ4:
		payload, err = compressLZ4(data)
	case CompressionZstd:
		payload, err = compressZstd(data)
	default:
		return nil, c, fmt.Errorf("unsupported compression %s", c)
	}
	if errors.Is(err, errIncompressible) {
		payload, c, err = data, CompressionNone, nil
	}
	if err != nil {
		return nil, c, err
	}
	buf := make([]byte, 1+binary.MaxVarintLen64, 1+binary.MaxVarintLen64+len(payload))
	buf[0] = byte(c)
	n := binary.PutUvarint(buf[1:], uint64(len(data)))
	buf = append(buf[:1+n], payload...)
	return buf, c, nil
}

// unpack reverses pack. The result never aliases buf.
func unpack(buf []byte) ([]byte, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("%w: short record", ErrCorrupt)
	}
	c := Compression(buf[0])
	size, n := binary.Uvarint(buf[1:])
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad size header", ErrCorrupt)
	}
	payload := buf[1+n:]
	switch c {
	case CompressionNone:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("%w: size %d does not match %d", ErrCorrupt, len(payload), size)
		}
		return append([]byte{}, payload...), nil
	case CompressionLZ4:
		return decompressLZ4(payload, int(size))
	case CompressionZstd:
		return decompressZstd(payload, int(size))
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, byte(c))
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
	}
	if n != size {
		return nil, fmt.Errorf("%w: lz4 produced %d bytes, expected %d", ErrCorrupt, n, size)
	}
	return dst, nil
}

func compressZstd(data []byte) ([]byte, error) {
	out := zstdEncoder.EncodeAll(data, nil)
	if len(out) >= len(data) {
		return nil, errIncompressible
	}
	return out, nil
}

func decompressZstd(src []byte, size int) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: zstd produced %d bytes, expected %d", ErrCorrupt, len(out), size)
	}
	return out, nil
}
