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
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/karstdb/karst/compr"
)

// envelopeMagic begins every sealed envelope so that
// truncated or foreign payloads are rejected up front.
const envelopeMagic = "KENV"

// Envelope is the unit actually transmitted between
// cluster nodes: a compressed stream plus the metadata
// a receiver needs to decode it (originating query,
// protocol version, compression algorithm) and a
// checksum of the uncompressed payload.
type Envelope struct {
	// QueryID identifies the distributed query
	// this payload belongs to.
	QueryID uuid.UUID
	// Version is the negotiated protocol version
	// the payload was encoded against.
	Version Version
	// Algo names the compression algorithm
	// (see package compr).
	Algo string
	// Sum is the blake2b-256 digest of the
	// uncompressed payload.
	Sum [32]byte
	// Body is the compressed payload.
	Body []byte
}

// Seal compresses payload with the named algorithm and
// wraps it in an Envelope for query id at version v.
func Seal(id uuid.UUID, v Version, algo string, payload []byte) (*Envelope, error) {
	c, err := compr.Compression(algo)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		QueryID: id,
		Version: v,
		Algo:    algo,
		Sum:     blake2b.Sum256(payload),
		Body:    c.Compress(payload, nil),
	}, nil
}

// Open decompresses the envelope body and verifies its
// checksum, returning the original payload.
func (e *Envelope) Open() ([]byte, error) {
	d, err := compr.Decompression(e.Algo)
	if err != nil {
		return nil, err
	}
	payload, err := d.Decompress(e.Body, nil)
	if err != nil {
		return nil, fmt.Errorf("wire: opening envelope for query %s: %w", e.QueryID, err)
	}
	sum := blake2b.Sum256(payload)
	if subtle.ConstantTimeCompare(sum[:], e.Sum[:]) != 1 {
		return nil, fmt.Errorf("wire: envelope for query %s: payload checksum mismatch", e.QueryID)
	}
	return payload, nil
}

// Marshal encodes the envelope framing. The framing itself
// is version-independent; only the enclosed body obeys the
// negotiated version.
func (e *Envelope) Marshal() []byte {
	w := NewWriter(e.Version)
	w.buf = append(w.buf, envelopeMagic...)
	w.WriteUvarint(uint64(e.Version))
	w.buf = append(w.buf, e.QueryID[:]...)
	w.WriteString(e.Algo)
	w.buf = append(w.buf, e.Sum[:]...)
	w.WriteUvarint(uint64(len(e.Body)))
	w.buf = append(w.buf, e.Body...)
	return w.Bytes()
}

// UnmarshalEnvelope decodes envelope framing produced
// by Marshal.
func UnmarshalEnvelope(buf []byte) (*Envelope, error) {
	r := NewReader(buf, Current)
	magic, err := r.take(len(envelopeMagic), "truncated magic")
	if err != nil {
		return nil, err
	}
	if string(magic) != envelopeMagic {
		return nil, r.Corrupt("bad envelope magic")
	}
	v, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	e := &Envelope{Version: Version(v)}
	id, err := r.take(len(e.QueryID), "truncated query id")
	if err != nil {
		return nil, err
	}
	copy(e.QueryID[:], id)
	e.Algo, err = r.ReadString()
	if err != nil {
		return nil, err
	}
	sum, err := r.take(len(e.Sum), "truncated checksum")
	if err != nil {
		return nil, err
	}
	copy(e.Sum[:], sum)
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, r.Corrupt(fmt.Sprintf("body length %d exceeds %d remaining bytes", n, r.Len()))
	}
	e.Body, err = r.take(int(n), "truncated body")
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, r.Corrupt(fmt.Sprintf("%d trailing bytes", r.Len()))
	}
	return e, nil
}
