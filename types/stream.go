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

package types

import (
	"fmt"

	"github.com/karstdb/karst/wire"
)

// arrays inside arrays are legitimate, but a stream
// claiming nesting deeper than this is corrupt
const maxNesting = 100

// Encode writes the variable-length descriptor of t.
// Array descriptors nest recursively.
func Encode(w *wire.Writer, t DataType) {
	w.WriteUvarint(uint64(t.ID()))
	if a, ok := t.(Array); ok {
		Encode(w, a.Inner)
	}
}

// Decode reads a descriptor written by Encode.
func Decode(r *wire.Reader) (DataType, error) {
	return decode(r, 0)
}

func decode(r *wire.Reader, depth int) (DataType, error) {
	if depth > maxNesting {
		return nil, r.Corrupt("type descriptor nested too deeply")
	}
	id, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	switch ID(id) {
	case UndefinedID:
		return Undefined, nil
	case NullID:
		return Null, nil
	case BoolID:
		return Bool, nil
	case IntegerID:
		return Integer, nil
	case LongID:
		return Long, nil
	case DoubleID:
		return Double, nil
	case TextID:
		return Text, nil
	case TimestampID:
		return Timestamp, nil
	case ObjectID:
		return Object, nil
	case ArrayID:
		inner, err := decode(r, depth+1)
		if err != nil {
			return nil, err
		}
		return MakeArray(inner), nil
	default:
		return nil, r.Corrupt(fmt.Sprintf("unknown type id %d", id))
	}
}
