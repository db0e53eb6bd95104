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

// Package expr implements the expression (symbol) tree of the
// query engine: the nodes produced by analysis, transformed by
// the planner, shipped between cluster nodes, and rendered back
// into SQL text for EXPLAIN and error messages.
//
// Nodes are immutable values. Any transformation (casting,
// decoding, rewriting) allocates new nodes and leaves existing
// trees untouched, so subtrees may be shared freely between
// goroutines without synchronization.
package expr

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/karstdb/karst/types"
	"github.com/karstdb/karst/wire"
)

// Style selects how names are rendered.
// Callers must always supply one; there is
// no default.
type Style int

const (
	// Simple renders unqualified function names.
	Simple Style = iota
	// Qualified renders schema-qualified function names.
	Qualified
)

// Printable is anything that can render itself as SQL text.
type Printable interface {
	// text writes the SQL representation of the
	// receiver to dst in the given style.
	text(dst *strings.Builder, sty Style)
}

// Node is an expression tree node.
type Node interface {
	Printable
	// Equals returns whether this node is
	// structurally equivalent to another node.
	Equals(Node) bool
	// ValueType returns the type this
	// expression evaluates to.
	ValueType() types.DataType
	// Encode writes the node to a versioned stream.
	Encode(w *wire.Writer)

	walk(Visitor)
}

// ToString renders a node (and its children, recursively)
// as SQL text in the given style. Rendering is deterministic:
// the same node and style always yield identical text.
func ToString(n Node, sty Style) string {
	if n == nil {
		return "<nil>"
	}
	var dst strings.Builder
	n.text(&dst, sty)
	return dst.String()
}

// Equal returns whether a and b are equivalent.
// a or b may be nil.
func Equal(a, b Node) bool {
	if a == nil {
		return b == nil
	}
	return b != nil && a.Equals(b)
}

// Visitor is the argument to Walk.
//
// A Visitor's Visit method is invoked for each node
// encountered by Walk. If the result visitor w is not
// nil, Walk visits each of the children of the node
// with w, followed by a call of w.Visit(nil).
//
// (see also: ast.Visitor)
type Visitor interface {
	Visit(Node) Visitor
}

// Walk traverses an expression tree in depth-first order.
func Walk(v Visitor, n Node) {
	w := v.Visit(n)
	if w != nil {
		n.walk(w)
		w.Visit(nil)
	}
}

// Rewriter accepts a Node and returns a new
// node (or just its argument).
type Rewriter interface {
	// Rewrite is applied to nodes in depth-first
	// order, and each node is replaced by the
	// returned value.
	Rewrite(Node) Node

	// Walk is called during traversal and the
	// returned Rewriter is used for the children
	// of the node. If it is nil, traversal does
	// not proceed past the node.
	Walk(Node) Rewriter
}

type nonleaf interface {
	rewrite(r Rewriter) Node
}

// Rewrite recursively applies a Rewriter in depth-first order.
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return nil
	}
	if nl, ok := n.(nonleaf); ok {
		if rc := r.Walk(n); rc != nil {
			n = nl.rewrite(rc)
		}
	}
	return r.Rewrite(n)
}

// node tags on the wire; the values are part
// of the stream format and must never be renumbered
const (
	tagNull uint64 = iota
	tagBool
	tagInteger
	tagFloat
	tagString
	tagColumn
	tagCall
)

// Integer is an integer literal.
type Integer int64

func (i Integer) text(dst *strings.Builder, _ Style) {
	dst.WriteString(strconv.FormatInt(int64(i), 10))
}

func (i Integer) Equals(n Node) bool {
	o, ok := n.(Integer)
	return ok && o == i
}

func (i Integer) ValueType() types.DataType { return types.Long }

func (i Integer) Encode(w *wire.Writer) {
	w.WriteUvarint(tagInteger)
	w.WriteInt64(int64(i))
}

func (i Integer) walk(Visitor) {}

// Float is a floating-point literal.
type Float float64

func (f Float) text(dst *strings.Builder, _ Style) {
	dst.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 64))
}

func (f Float) Equals(n Node) bool {
	o, ok := n.(Float)
	return ok && o == f
}

func (f Float) ValueType() types.DataType { return types.Double }

func (f Float) Encode(w *wire.Writer) {
	w.WriteUvarint(tagFloat)
	w.WriteFloat64(float64(f))
}

func (f Float) walk(Visitor) {}

// String is a string literal.
type String string

func (s String) text(dst *strings.Builder, _ Style) {
	quote(dst, string(s))
}

func (s String) Equals(n Node) bool {
	o, ok := n.(String)
	return ok && o == s
}

func (s String) ValueType() types.DataType { return types.Text }

func (s String) Encode(w *wire.Writer) {
	w.WriteUvarint(tagString)
	w.WriteString(string(s))
}

func (s String) walk(Visitor) {}

// Bool is a boolean literal.
type Bool bool

func (b Bool) text(dst *strings.Builder, _ Style) {
	if b {
		dst.WriteString("TRUE")
	} else {
		dst.WriteString("FALSE")
	}
}

func (b Bool) Equals(n Node) bool {
	o, ok := n.(Bool)
	return ok && o == b
}

func (b Bool) ValueType() types.DataType { return types.Bool }

func (b Bool) Encode(w *wire.Writer) {
	w.WriteUvarint(tagBool)
	w.WriteBool(bool(b))
}

func (b Bool) walk(Visitor) {}

// Null is the NULL literal.
type Null struct{}

func (n Null) text(dst *strings.Builder, _ Style) {
	dst.WriteString("NULL")
}

func (n Null) Equals(o Node) bool {
	_, ok := o.(Null)
	return ok
}

func (n Null) ValueType() types.DataType { return types.Null }

func (n Null) Encode(w *wire.Writer) {
	w.WriteUvarint(tagNull)
}

func (n Null) walk(Visitor) {}

// Column is a reference to a table column, optionally
// into a nested sub-structure of an object column.
type Column struct {
	// Name is the top-level column name.
	Name string
	// Path is the nested object path below Name,
	// empty for plain columns.
	Path []string
	// Type is the type of the referenced value.
	Type types.DataType
}

func (c *Column) text(dst *strings.Builder, _ Style) {
	dst.WriteString(c.Name)
	for _, p := range c.Path {
		dst.WriteString("['")
		dst.WriteString(p)
		dst.WriteString("']")
	}
}

func (c *Column) Equals(n Node) bool {
	o, ok := n.(*Column)
	return ok && o.Name == c.Name &&
		slices.Equal(o.Path, c.Path) &&
		types.Equal(o.Type, c.Type)
}

func (c *Column) ValueType() types.DataType { return c.Type }

func (c *Column) Encode(w *wire.Writer) {
	w.WriteUvarint(tagColumn)
	w.WriteString(c.Name)
	w.WriteUvarint(uint64(len(c.Path)))
	for _, p := range c.Path {
		w.WriteString(p)
	}
	types.Encode(w, c.Type)
}

func (c *Column) walk(Visitor) {}
