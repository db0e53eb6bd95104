// Copyright (C) 2023 Karst Data, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package compr provides a unified interface wrapping
// the compression algorithms used for shipping query
// plans and intermediate results between cluster nodes.
package compr

import (
	"fmt"
	"runtime"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compressor compresses whole buffers.
type Compressor interface {
	// Name is the name of the compression algorithm.
	Name() string
	// Compress appends the compressed contents
	// of src to dst and returns the result.
	Compress(src, dst []byte) []byte
}

// Decompressor is the inverse of Compressor.
type Decompressor interface {
	// Name is the name of the compression algorithm.
	// See also Compressor.Name.
	Name() string
	// Decompress appends the decompressed contents
	// of src to dst and returns the result.
	//
	// It must be safe to call Decompress from
	// multiple goroutines simultaneously.
	Decompress(src, dst []byte) ([]byte, error)
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	e, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdEncoder = e
	d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdDecoder = d
}

type zstdCompressor struct{}

func (zstdCompressor) Name() string { return "zstd" }

func (zstdCompressor) Compress(src, dst []byte) []byte {
	return zstdEncoder.EncodeAll(src, dst)
}

func (zstdCompressor) Decompress(src, dst []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(src, dst)
}

type s2Compressor struct{}

func (s2Compressor) Name() string { return "s2" }

func (s2Compressor) Compress(src, dst []byte) []byte {
	// s2.Encode wants a destination of at least MaxEncodedLen;
	// it returns the written prefix
	off := len(dst)
	need := s2.MaxEncodedLen(len(src))
	if cap(dst)-off < need {
		grown := make([]byte, off, off+need)
		copy(grown, dst)
		dst = grown
	}
	out := s2.Encode(dst[off:off+need], src)
	return dst[:off+len(out)]
}

func (s2Compressor) Decompress(src, dst []byte) ([]byte, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return nil, err
	}
	off := len(dst)
	if cap(dst)-off < n {
		grown := make([]byte, off, off+n)
		copy(grown, dst)
		dst = grown
	}
	out, err := s2.Decode(dst[off:off+n], src)
	if err != nil {
		return nil, err
	}
	return dst[:off+len(out)], nil
}

// Compression returns the named Compressor,
// or an error if the name is not recognized.
func Compression(name string) (Compressor, error) {
	switch name {
	case "zstd":
		return zstdCompressor{}, nil
	case "s2":
		return s2Compressor{}, nil
	default:
		return nil, fmt.Errorf("compr: unknown compression %q", name)
	}
}

// Decompression returns the named Decompressor,
// or an error if the name is not recognized.
func Decompression(name string) (Decompressor, error) {
	switch name {
	case "zstd":
		return zstdCompressor{}, nil
	case "s2":
		return s2Compressor{}, nil
	default:
		return nil, fmt.Errorf("compr: unknown compression %q", name)
	}
}
