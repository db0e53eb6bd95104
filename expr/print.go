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
	"strings"

	"github.com/karstdb/karst/types"
)

// classKind is the closed set of syntactic shapes a call can
// render as. It is computed once per node from the callee name
// (see classify); rendering then dispatches on the tag instead
// of re-checking name patterns.
type classKind uint8

const (
	classGeneric classKind = iota
	classMatch
	classSubscript
	classSubscriptRecord
	classKeyword
	classIsNull
	classNot
	classCount
	classCurrentTimestamp
	classAny
	classCast
	classImplicitCast
	classInfix
	classExtract
)

// renderClass is the classification of a callee name: the
// shape tag plus the operator/field text some shapes need.
type renderClass struct {
	kind classKind
	// op is the infix operator text (classAny, classInfix),
	// the extract field (classExtract), or the bare keyword
	// (classKeyword).
	op string
}

// the spelled-out arithmetic functions that render as infix
// operators; mod and modulus are synonymous
var arithmeticOperators = map[string]string{
	"add":      "+",
	"subtract": "-",
	"multiply": "*",
	"divide":   "/",
	"mod":      "%",
	"modulus":  "%",
}

// classify maps a callee name to its rendering shape. Exact
// names are matched before prefixes, so op_isnull and op_not
// are classified before the generic op_ rule can see them;
// the order here is load-bearing and mirrors the precedence
// the renderer guarantees.
func classify(name string) renderClass {
	switch name {
	case MatchName:
		return renderClass{kind: classMatch}
	case SubscriptName, SubscriptObjectName:
		return renderClass{kind: classSubscript}
	case SubscriptRecordName:
		return renderClass{kind: classSubscriptRecord}
	case "current_user":
		return renderClass{kind: classKeyword, op: "CURRENT_USER"}
	case "session_user":
		return renderClass{kind: classKeyword, op: "SESSION_USER"}
	case CurrentSchemasName, CurrentSchemaName:
		return renderClass{kind: classKeyword, op: name}
	case IsNullName:
		return renderClass{kind: classIsNull}
	case NotName:
		return renderClass{kind: classNot}
	case CountName:
		return renderClass{kind: classCount}
	case CurrentTimestampName:
		return renderClass{kind: classCurrentTimestamp}
	}
	if rest, ok := strings.CutPrefix(name, AnyOperatorPrefix); ok {
		op := strings.ToUpper(strings.ReplaceAll(rest, "_", " "))
		return renderClass{kind: classAny, op: op}
	}
	if strings.EqualFold(name, ImplicitCastName) {
		return renderClass{kind: classImplicitCast, op: name}
	}
	if strings.EqualFold(name, ExplicitCastName) || strings.EqualFold(name, TryCastName) {
		return renderClass{kind: classCast, op: name}
	}
	if rest, ok := strings.CutPrefix(name, OperatorPrefix); ok {
		return renderClass{kind: classInfix, op: strings.ToUpper(rest)}
	}
	if rest, ok := strings.CutPrefix(name, ExtractPrefix); ok {
		return renderClass{kind: classExtract, op: rest}
	}
	if op, ok := arithmeticOperators[name]; ok {
		return renderClass{kind: classInfix, op: op}
	}
	return renderClass{kind: classGeneric}
}

// text renders the call in SQL surface syntax. The renderer
// assumes upstream analysis has produced a well-formed node:
// in particular a filter is only ever bound to aggregate
// calls, and the shape-specific argument counts (two operands
// for infix operators, one for extract, ...) hold.
func (c *Call) text(dst *strings.Builder, sty Style) {
	switch c.class.kind {
	case classMatch:
		printMatch(dst, c, sty)
	case classSubscript:
		c.printSubscript(dst, sty)
	case classSubscriptRecord:
		dst.WriteByte('(')
		c.args[0].text(dst, sty)
		dst.WriteString(").")
		c.args[1].text(dst, sty)
	case classKeyword:
		dst.WriteString(c.class.op)
	case classIsNull:
		dst.WriteByte('(')
		c.args[0].text(dst, sty)
		dst.WriteString(" IS NULL)")
	case classNot:
		dst.WriteString("(NOT ")
		c.args[0].text(dst, sty)
		dst.WriteByte(')')
	case classCount:
		if len(c.args) == 0 {
			dst.WriteString("count(*)")
			c.printFilter(dst, sty)
		} else {
			c.printGenericCall(dst, sty)
		}
	case classCurrentTimestamp:
		if len(c.args) == 0 {
			dst.WriteString("CURRENT_TIMESTAMP")
		} else {
			c.printGenericCall(dst, sty)
		}
	case classAny:
		c.printAnyOperator(dst, sty)
	case classCast, classImplicitCast:
		c.printCast(dst, sty)
	case classInfix:
		c.printInfix(dst, sty, c.class.op)
	case classExtract:
		dst.WriteString("extract(")
		dst.WriteString(c.class.op)
		dst.WriteString(" FROM ")
		c.args[0].text(dst, sty)
		dst.WriteByte(')')
	default:
		c.printGenericCall(dst, sty)
	}
}

// wrap the operator in parens to pin precedence
func (c *Call) printInfix(dst *strings.Builder, sty Style, op string) {
	dst.WriteByte('(')
	c.args[0].text(dst, sty)
	dst.WriteByte(' ')
	dst.WriteString(op)
	dst.WriteByte(' ')
	c.args[1].text(dst, sty)
	dst.WriteByte(')')
}

func (c *Call) printAnyOperator(dst *strings.Builder, sty Style) {
	if len(c.args) != 2 {
		panic("expr: any-operator call must have exactly 2 arguments")
	}
	dst.WriteByte('(')
	c.args[0].text(dst, sty)
	dst.WriteByte(' ')
	dst.WriteString(c.class.op)
	dst.WriteString(" ANY(")
	c.args[1].text(dst, sty)
	dst.WriteString("))")
}

func (c *Call) printCast(dst *strings.Builder, sty Style) {
	dst.WriteString(c.class.op)
	dst.WriteByte('(')
	c.args[0].text(dst, sty)
	if c.class.kind == classImplicitCast {
		// the implicit cast carries its target type as a
		// runtime value, not static syntax
		dst.WriteString(", ")
		c.args[1].text(dst, sty)
	} else {
		dst.WriteString(" AS ")
		dst.WriteString(c.ValueType().String())
	}
	dst.WriteByte(')')
}

func (c *Call) printSubscript(dst *strings.Builder, sty Style) {
	base := c.args[0]
	if col, ok := base.(*Column); ok && isArrayType(col.Type) && len(col.Path) > 0 {
		// a subscript into an array inside a sub-structure:
		// the index goes between the column name and the path
		dst.WriteString(col.Name)
		dst.WriteByte('[')
		c.args[1].text(dst, sty)
		dst.WriteString("]['")
		dst.WriteString(col.Path[0])
		dst.WriteString("']")
		return
	}
	base.text(dst, sty)
	dst.WriteByte('[')
	c.args[1].text(dst, sty)
	dst.WriteByte(']')
}

func (c *Call) printGenericCall(dst *strings.Builder, sty Style) {
	c.QualifiedName().text(dst, sty)
	dst.WriteByte('(')
	for i := range c.args {
		if i > 0 {
			dst.WriteString(", ")
		}
		c.args[i].text(dst, sty)
	}
	dst.WriteByte(')')
	c.printFilter(dst, sty)
}

func (c *Call) printFilter(dst *strings.Builder, sty Style) {
	if c.filter == nil {
		return
	}
	dst.WriteString(" FILTER (WHERE ")
	c.filter.text(dst, sty)
	dst.WriteByte(')')
}

func isArrayType(t types.DataType) bool {
	_, ok := t.(types.Array)
	return ok
}
