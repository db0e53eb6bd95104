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

package expr

import (
	"fmt"

	"github.com/karstdb/karst/types"
	"github.com/karstdb/karst/wire"
)

// Decode reads one node (and its children, recursively)
// from a versioned stream produced by Node.Encode at the
// same version.
func Decode(r *wire.Reader) (Node, error) {
	n, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("expr.Decode: %w", err)
	}
	return n, nil
}

func decode(r *wire.Reader) (Node, error) {
	tag, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNull:
		return Null{}, nil
	case tagBool:
		b, err := r.ReadBool()
		return Bool(b), err
	case tagInteger:
		i, err := r.ReadInt64()
		return Integer(i), err
	case tagFloat:
		f, err := r.ReadFloat64()
		return Float(f), err
	case tagString:
		s, err := r.ReadString()
		return String(s), err
	case tagColumn:
		return decodeColumn(r)
	case tagCall:
		return decodeCall(r)
	default:
		return nil, r.Corrupt(fmt.Sprintf("unknown node tag %d", tag))
	}
}

func decodeColumn(r *wire.Reader) (*Column, error) {
	c := &Column{}
	var err error
	c.Name, err = r.ReadString()
	if err != nil {
		return nil, err
	}
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, r.Corrupt(fmt.Sprintf("column path length %d exceeds %d remaining bytes", n, r.Len()))
	}
	for i := 0; i < int(n); i++ {
		p, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		c.Path = append(c.Path, p)
	}
	c.Type, err = types.Decode(r)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// encodeOptional writes a presence flag followed by
// the node itself when present.
func encodeOptional(w *wire.Writer, n Node) {
	w.WriteBool(n != nil)
	if n != nil {
		n.Encode(w)
	}
}

// decodeOptional mirrors encodeOptional.
func decodeOptional(r *wire.Reader) (Node, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	return decode(r)
}
