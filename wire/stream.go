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

package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer is an in-memory stream encoder bound to
// a negotiated peer version. Writes cannot fail;
// callers retrieve the accumulated stream with Bytes.
type Writer struct {
	version Version
	buf     []byte
}

// NewWriter constructs a Writer that encodes
// for a peer speaking version v.
func NewWriter(v Version) *Writer {
	return &Writer{version: v}
}

// Version returns the peer version the stream
// is encoded against.
func (w *Writer) Version() Version { return w.version }

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte { return w.buf }

// Reset clears the stream but keeps the version
// and the underlying allocation.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// WriteBool writes a single-byte boolean.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteUvarint writes an unsigned varint.
func (w *Writer) WriteUvarint(u uint64) {
	w.buf = binary.AppendUvarint(w.buf, u)
}

// WriteInt64 writes a zigzag-encoded signed varint.
func (w *Writer) WriteInt64(i int64) {
	w.buf = binary.AppendVarint(w.buf, i)
}

// WriteFloat64 writes a fixed-width little-endian IEEE754 double.
func (w *Writer) WriteFloat64(f float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(f))
}

// WriteString writes a length-prefixed string.
func (w *Writer) WriteString(s string) {
	w.WriteUvarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// CorruptError is returned when a stream cannot be
// decoded: a length, tag, or field is inconsistent with
// the bytes that follow it. Off is the stream offset at
// which the inconsistency was detected.
type CorruptError struct {
	Off  int
	What string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("wire: corrupt stream at offset %d: %s", e.Off, e.What)
}

// Reader decodes a stream produced by a Writer bound
// to the same version. A Reader never reads past the
// end of its buffer; any inconsistency yields a
// *CorruptError and leaves no partial state behind in
// the caller (decoding constructs values only on full
// success).
type Reader struct {
	version Version
	buf     []byte
	off     int
}

// NewReader constructs a Reader over buf, decoding
// against peer version v.
func NewReader(buf []byte, v Version) *Reader {
	return &Reader{version: v, buf: buf}
}

// Version returns the peer version the stream
// is decoded against.
func (r *Reader) Version() Version { return r.version }

// Len returns the number of bytes not yet consumed.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Corrupt constructs a *CorruptError at the current offset.
func (r *Reader) Corrupt(what string) error {
	return &CorruptError{Off: r.off, What: what}
}

func (r *Reader) take(n int, what string) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, r.Corrupt(what)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadBool reads a boolean written by WriteBool.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.take(1, "truncated bool")
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &CorruptError{Off: r.off - 1, What: fmt.Sprintf("bad bool byte %#x", b[0])}
	}
}

// ReadUvarint reads an unsigned varint.
func (r *Reader) ReadUvarint() (uint64, error) {
	u, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, r.Corrupt("bad uvarint")
	}
	r.off += n
	return u, nil
}

// ReadInt64 reads a signed varint written by WriteInt64.
func (r *Reader) ReadInt64() (int64, error) {
	i, n := binary.Varint(r.buf[r.off:])
	if n <= 0 {
		return 0, r.Corrupt("bad varint")
	}
	r.off += n
	return i, nil
}

// ReadFloat64 reads a double written by WriteFloat64.
func (r *Reader) ReadFloat64() (float64, error) {
	b, err := r.take(8, "truncated float64")
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadString reads a length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(r.Len()) {
		return "", r.Corrupt(fmt.Sprintf("string length %d exceeds %d remaining bytes", n, r.Len()))
	}
	b, err := r.take(int(n), "truncated string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
