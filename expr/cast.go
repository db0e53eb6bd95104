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
)

// CastMode selects which cast function a coercion wraps an
// expression in.
type CastMode uint8

const (
	// Explicit is a user-written CAST.
	Explicit CastMode = iota
	// Implicit is a coercion inserted by the analyzer.
	Implicit
	// Try yields NULL instead of failing at runtime.
	Try
)

// ConversionError is returned when an expression cannot be
// coerced to a requested type.
type ConversionError struct {
	From, To types.DataType
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot cast expression of type %s to %s", e.From, e.To)
}

// Castable is implemented by nodes that override the generic
// coercion path with their own.
type Castable interface {
	Cast(target types.DataType, modes ...CastMode) (Node, error)
}

// Cast coerces n to the target type, yielding a new node and
// leaving n untouched. Most nodes are wrapped in the cast
// function selected by modes; nodes implementing Castable
// (notably the array constructor, see (*Call).Cast) take over.
func Cast(n Node, target types.DataType, modes ...CastMode) (Node, error) {
	if c, ok := n.(Castable); ok {
		return c.Cast(target, modes...)
	}
	return wrapCast(n, target, modes...)
}

// Cast implements the coercion contract for function calls.
//
// The array constructor is treated specially: it is a value
// constructor, not a regular function, so casting it to an
// array type distributes over the elements instead of wrapping
// the whole call. That pushes the target element type down
// into each element expression, which is what makes type
// inference work for assignments like some_array = [?, ?] or
// array_cat([?, ?], [1, 2]).
func (c *Call) Cast(target types.DataType, modes ...CastMode) (Node, error) {
	if arr, ok := target.(types.Array); ok && c.Name() == ArrayName {
		return c.castArrayElements(arr, modes...)
	}
	return wrapCast(c, target, modes...)
}

func (c *Call) castArrayElements(target types.Array, modes ...CastMode) (Node, error) {
	if c.filter != nil {
		// array constructors never carry filters; analysis
		// upstream is broken if we ever get here
		panic("expr: array constructor call with bound filter")
	}
	args := make([]Node, len(c.args))
	for i := range c.args {
		cast, err := Cast(c.args[i], target.Inner, modes...)
		if err != nil {
			// re-signal with the whole-value types; which
			// element failed is not recoverable from this error
			return nil, &ConversionError{From: c.ret, To: target}
		}
		args[i] = cast
	}
	return c.remake(args, target, nil), nil
}

// wrapCast is the generic coercion path: wrap n in the cast
// function selected by modes.
func wrapCast(n Node, target types.DataType, modes ...CastMode) (Node, error) {
	from := n.ValueType()
	if !types.ConvertibleTo(from, target) {
		return nil, &ConversionError{From: from, To: target}
	}
	name := ExplicitCastName
	for _, m := range modes {
		switch m {
		case Implicit:
			name = ImplicitCastName
		case Try:
			name = TryCastName
		}
	}
	args := []Node{n}
	if name == ImplicitCastName {
		// the implicit cast carries its target type as a
		// runtime value in the second argument
		args = append(args, String(target.String()))
	}
	sig := &Signature{
		Name:     FunctionName{Name: name},
		Kind:     Scalar,
		Features: FeatureDeterministic,
		ArgTypes: argumentTypes(args),
		Return:   target,
	}
	return NewCall(sig, args, target, nil), nil
}

func argumentTypes(args []Node) []types.DataType {
	out := make([]types.DataType, len(args))
	for i := range args {
		out[i] = args[i].ValueType()
	}
	return out
}
