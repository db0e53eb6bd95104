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

// Package types defines the SQL data types that expressions
// evaluate to, plus their wire descriptors.
package types

import (
	"fmt"
	"strings"
)

// ID identifies a data type on the wire.
// The values are part of the stream format
// and must never be renumbered.
type ID uint8

const (
	UndefinedID ID = 0
	NullID      ID = 1
	BoolID      ID = 2
	IntegerID   ID = 3
	LongID      ID = 4
	DoubleID    ID = 5
	TextID      ID = 6
	TimestampID ID = 7
	ObjectID    ID = 8
	ArrayID     ID = 9
)

// DataType is a SQL data type.
type DataType interface {
	// ID returns the wire identity of the type.
	ID() ID
	// Name returns the base type name, e.g. "bigint".
	Name() string
	// String returns the full signature text of the
	// type, e.g. "array(bigint)". For non-parametric
	// types this equals Name.
	String() string
}

type primitive struct {
	id   ID
	name string
}

func (p primitive) ID() ID         { return p.id }
func (p primitive) Name() string   { return p.name }
func (p primitive) String() string { return p.name }

var (
	// Undefined is the type of expressions whose type
	// has not been inferred yet (e.g. unbound parameters).
	Undefined DataType = primitive{UndefinedID, "undefined"}
	Null      DataType = primitive{NullID, "null"}
	Bool      DataType = primitive{BoolID, "boolean"}
	Integer   DataType = primitive{IntegerID, "integer"}
	Long      DataType = primitive{LongID, "bigint"}
	Double    DataType = primitive{DoubleID, "double precision"}
	Text      DataType = primitive{TextID, "text"}
	Timestamp DataType = primitive{TimestampID, "timestamp with time zone"}
	Object    DataType = primitive{ObjectID, "object"}
)

// Array is the type of arrays with a fixed element type.
type Array struct {
	Inner DataType
}

// MakeArray returns the array type with the given element type.
func MakeArray(inner DataType) Array { return Array{Inner: inner} }

func (a Array) ID() ID       { return ArrayID }
func (a Array) Name() string { return "array" }

func (a Array) String() string {
	return "array(" + a.Inner.String() + ")"
}

// Equal returns whether two types are structurally identical.
func Equal(a, b DataType) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID() != b.ID() {
		return false
	}
	if aa, ok := a.(Array); ok {
		return Equal(aa.Inner, b.(Array).Inner)
	}
	return true
}

// ConvertibleTo reports whether a value of type from is
// admissible for coercion to type to. This is the static
// admissibility check only; a conversion that is admissible
// here can still fail at evaluation time (e.g. text to
// bigint on a non-numeric string).
func ConvertibleTo(from, to DataType) bool {
	if Equal(from, to) {
		return true
	}
	switch from.ID() {
	case UndefinedID, NullID:
		return true
	}
	if to.ID() == TextID {
		return true
	}
	if from.ID() == TextID {
		// runtime-checked parse
		return to.ID() != ObjectID && to.ID() != ArrayID
	}
	if isNumeric(from.ID()) && isNumeric(to.ID()) {
		return true
	}
	if from.ID() == TimestampID && to.ID() == LongID {
		return true
	}
	if from.ID() == LongID && to.ID() == TimestampID {
		return true
	}
	if fa, ok := from.(Array); ok {
		if ta, ok := to.(Array); ok {
			return ConvertibleTo(fa.Inner, ta.Inner)
		}
	}
	return false
}

func isNumeric(id ID) bool {
	switch id {
	case IntegerID, LongID, DoubleID:
		return true
	}
	return false
}

// Parse parses signature text as produced by
// DataType.String, e.g. "bigint" or "array(array(text))".
func Parse(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(s, "array("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return nil, fmt.Errorf("types: unbalanced array type %q", s)
		}
		elem, err := Parse(inner)
		if err != nil {
			return nil, err
		}
		return MakeArray(elem), nil
	}
	for _, t := range []DataType{
		Undefined, Null, Bool, Integer, Long, Double, Text, Timestamp, Object,
	} {
		if t.Name() == s {
			return t, nil
		}
	}
	return nil, fmt.Errorf("types: unknown type %q", s)
}
