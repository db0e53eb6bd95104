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
	"strings"

	"golang.org/x/exp/slices"

	"github.com/karstdb/karst/types"
	"github.com/karstdb/karst/wire"
)

// FunctionName is a possibly schema-qualified function name.
// Builtins have an empty schema.
type FunctionName struct {
	Schema string
	Name   string
}

func (f FunctionName) String() string {
	if f.Schema == "" {
		return f.Name
	}
	return f.Schema + "." + f.Name
}

func (f FunctionName) text(dst *strings.Builder, sty Style) {
	if sty == Qualified && f.Schema != "" {
		dst.WriteString(f.Schema)
		dst.WriteByte('.')
	}
	dst.WriteString(f.Name)
}

func (f FunctionName) encode(w *wire.Writer) {
	w.WriteString(f.Schema)
	w.WriteString(f.Name)
}

func decodeFunctionName(r *wire.Reader) (FunctionName, error) {
	var f FunctionName
	var err error
	if f.Schema, err = r.ReadString(); err != nil {
		return f, err
	}
	f.Name, err = r.ReadString()
	return f, err
}

// Kind classifies what a function call does with its input rows.
type Kind uint8

const (
	Scalar Kind = iota
	Aggregate
	Table
	Window
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Aggregate:
		return "aggregate"
	case Table:
		return "table"
	case Window:
		return "window"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "scalar":
		return Scalar, nil
	case "aggregate":
		return Aggregate, nil
	case "table":
		return Table, nil
	case "window":
		return Window, nil
	default:
		return 0, fmt.Errorf("expr: unknown function kind %q", s)
	}
}

// Features is the set of declared capability flags of a function.
type Features uint32

const (
	// FeatureDeterministic marks functions that always
	// produce the same output for the same input; the
	// planner may fold or cache such calls.
	FeatureDeterministic Features = 1 << iota
	// FeatureStrict marks functions that return NULL
	// on any NULL argument.
	FeatureStrict
	// FeatureNonNullable marks functions that never
	// return NULL for non-NULL input.
	FeatureNonNullable
)

// Has returns whether all flags in f2 are set in f.
func (f Features) Has(f2 Features) bool { return f&f2 == f2 }

// ParseFeature parses a single feature name from a catalog file.
func ParseFeature(s string) (Features, error) {
	switch s {
	case "deterministic":
		return FeatureDeterministic, nil
	case "strict":
		return FeatureStrict, nil
	case "non_nullable":
		return FeatureNonNullable, nil
	default:
		return 0, fmt.Errorf("expr: unknown function feature %q", s)
	}
}

// Signature is a resolved function overload: the identity a
// name plus concrete argument types resolved to, together
// with kind and capability metadata. Signatures exist only on
// nodes created locally or received from peers at or above
// wire.SignatureVersion.
type Signature struct {
	Name     FunctionName
	Kind     Kind
	Features Features
	ArgTypes []types.DataType
	Return   types.DataType
}

// HasFeature returns whether the signature declares all flags in f.
func (s *Signature) HasFeature(f Features) bool { return s.Features.Has(f) }

// Deterministic is shorthand for HasFeature(FeatureDeterministic).
func (s *Signature) Deterministic() bool { return s.HasFeature(FeatureDeterministic) }

func (s *Signature) String() string {
	args := make([]string, len(s.ArgTypes))
	for i := range s.ArgTypes {
		args[i] = s.ArgTypes[i].String()
	}
	return fmt.Sprintf("%s(%s) -> %s", s.Name, strings.Join(args, ", "), s.Return)
}

func (s *Signature) encode(w *wire.Writer) {
	s.Name.encode(w)
	w.WriteUvarint(uint64(s.Kind))
	w.WriteUvarint(uint64(s.Features))
	w.WriteUvarint(uint64(len(s.ArgTypes)))
	for i := range s.ArgTypes {
		types.Encode(w, s.ArgTypes[i])
	}
	types.Encode(w, s.Return)
}

func decodeSignature(r *wire.Reader) (*Signature, error) {
	var s Signature
	var err error
	if s.Name, err = decodeFunctionName(r); err != nil {
		return nil, err
	}
	k, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	s.Kind = Kind(k)
	f, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	s.Features = Features(f)
	s.ArgTypes, err = decodeTypeList(r)
	if err != nil {
		return nil, err
	}
	s.Return, err = types.Decode(r)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LegacyInfo is the pre-signature description of a function
// call. It is the baseline every protocol version understands
// and is always kept consistent with the signature (when one
// is bound) at construction time. Peers below
// wire.SignatureVersion see nothing else.
type LegacyInfo struct {
	Name     FunctionName
	ArgTypes []types.DataType
	Return   types.DataType
	Kind     Kind
	Features Features
}

// legacyFor derives the baseline descriptor for a call built
// from a resolved signature.
func legacyFor(sig *Signature, args []Node, ret types.DataType) LegacyInfo {
	return LegacyInfo{
		Name:     sig.Name,
		ArgTypes: argumentTypes(args),
		Return:   ret,
		Kind:     sig.Kind,
		Features: sig.Features,
	}
}

func (li *LegacyInfo) equals(o *LegacyInfo) bool {
	return li.Name == o.Name &&
		slices.EqualFunc(li.ArgTypes, o.ArgTypes, types.Equal) &&
		types.Equal(li.Return, o.Return) &&
		li.Kind == o.Kind &&
		li.Features == o.Features
}

func (li *LegacyInfo) encode(w *wire.Writer) {
	li.Name.encode(w)
	w.WriteUvarint(uint64(len(li.ArgTypes)))
	for i := range li.ArgTypes {
		types.Encode(w, li.ArgTypes[i])
	}
	types.Encode(w, li.Return)
	w.WriteUvarint(uint64(li.Kind))
	w.WriteUvarint(uint64(li.Features))
}

func decodeLegacyInfo(r *wire.Reader) (LegacyInfo, error) {
	var li LegacyInfo
	var err error
	if li.Name, err = decodeFunctionName(r); err != nil {
		return li, err
	}
	if li.ArgTypes, err = decodeTypeList(r); err != nil {
		return li, err
	}
	if li.Return, err = types.Decode(r); err != nil {
		return li, err
	}
	k, err := r.ReadUvarint()
	if err != nil {
		return li, err
	}
	li.Kind = Kind(k)
	f, err := r.ReadUvarint()
	if err != nil {
		return li, err
	}
	li.Features = Features(f)
	return li, nil
}

func decodeTypeList(r *wire.Reader) ([]types.DataType, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, r.Corrupt(fmt.Sprintf("type list length %d exceeds %d remaining bytes", n, r.Len()))
	}
	out := make([]types.DataType, 0, n)
	for i := 0; i < int(n); i++ {
		t, err := types.Decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
