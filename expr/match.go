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
)

// printMatch renders the full-text match predicate. Analysis
// builds match calls with the argument convention
//
//	match(fields, query [, method [, options]])
//
// where fields is either a single column or an array
// constructor over columns, method is the match type as a
// string literal, and options is a string literal of
// comma-separated settings.
func printMatch(dst *strings.Builder, c *Call, sty Style) {
	dst.WriteString("MATCH ((")
	if fields, ok := c.args[0].(*Call); ok && fields.Name() == ArrayName {
		for i, f := range fields.Arguments() {
			if i > 0 {
				dst.WriteString(", ")
			}
			f.text(dst, sty)
		}
	} else {
		c.args[0].text(dst, sty)
	}
	dst.WriteString("), ")
	c.args[1].text(dst, sty)
	dst.WriteByte(')')
	if len(c.args) > 2 {
		dst.WriteString(" USING ")
		if method, ok := c.args[2].(String); ok {
			dst.WriteString(string(method))
		} else {
			c.args[2].text(dst, sty)
		}
	}
	if len(c.args) > 3 {
		dst.WriteString(" WITH (")
		if opts, ok := c.args[3].(String); ok {
			dst.WriteString(string(opts))
		} else {
			c.args[3].text(dst, sty)
		}
		dst.WriteByte(')')
	}
}
