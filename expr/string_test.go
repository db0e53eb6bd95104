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
	"testing"

	"github.com/karstdb/karst/types"
)

// makeSig builds a scalar signature from a name and types
func makeSig(name string, kind Kind, ret types.DataType, argTypes ...types.DataType) *Signature {
	return &Signature{
		Name:     FunctionName{Name: name},
		Kind:     kind,
		Features: FeatureDeterministic,
		ArgTypes: argTypes,
		Return:   ret,
	}
}

func mkCall(name string, ret types.DataType, args ...Node) *Call {
	return NewCall(makeSig(name, Scalar, ret, argumentTypes(args)...), args, ret, nil)
}

func mkAgg(name string, ret types.DataType, filter Node, args ...Node) *Call {
	return NewCall(makeSig(name, Aggregate, ret, argumentTypes(args)...), args, ret, filter)
}

func col(name string, t types.DataType) *Column {
	return &Column{Name: name, Type: t}
}

func TestCallString(t *testing.T) {
	longArr := types.MakeArray(types.Long)
	gt := mkCall("op_>", types.Bool, col("x", types.Long), Integer(0))
	testcases := []struct {
		in   Node
		want string
	}{
		{
			mkCall("op_+", types.Long, Integer(1), Integer(2)),
			"(1 + 2)",
		},
		{
			mkCall("add", types.Long, Integer(1), Integer(2)),
			"(1 + 2)",
		},
		{
			mkCall("subtract", types.Long, col("x", types.Long), Integer(3)),
			"(x - 3)",
		},
		{
			mkCall("mod", types.Long, Integer(7), Integer(2)),
			"(7 % 2)",
		},
		{
			mkCall("modulus", types.Long, Integer(7), Integer(2)),
			"(7 % 2)",
		},
		{
			mkCall("op_and", types.Bool, Bool(true), Bool(false)),
			"(TRUE AND FALSE)",
		},
		{
			mkAgg(CountName, types.Long, nil),
			"count(*)",
		},
		{
			mkAgg(CountName, types.Long, gt),
			"count(*) FILTER (WHERE (x > 0))",
		},
		{
			mkAgg(CountName, types.Long, nil, col("x", types.Long)),
			"count(x)",
		},
		{
			mkCall("any_=", types.Bool, col("x", types.Long), col("arr", longArr)),
			"(x = ANY(arr))",
		},
		{
			mkCall("any_not_like", types.Bool, col("name", types.Text), col("patterns", types.MakeArray(types.Text))),
			"(name NOT LIKE ANY(patterns))",
		},
		{
			mkCall("extract_year", types.Integer, col("ts", types.Timestamp)),
			"extract(year FROM ts)",
		},
		{
			mkCall(IsNullName, types.Bool, col("x", types.Long)),
			"(x IS NULL)",
		},
		{
			mkCall(NotName, types.Bool, col("b", types.Bool)),
			"(NOT b)",
		},
		{
			mkCall("current_user", types.Text),
			"CURRENT_USER",
		},
		{
			mkCall("session_user", types.Text),
			"SESSION_USER",
		},
		{
			mkCall(CurrentSchemaName, types.Text),
			"current_schema",
		},
		{
			mkCall(CurrentSchemasName, types.MakeArray(types.Text)),
			"current_schemas",
		},
		{
			mkCall(CurrentTimestampName, types.Timestamp),
			"CURRENT_TIMESTAMP",
		},
		{
			mkCall(CurrentTimestampName, types.Timestamp, Integer(3)),
			"current_timestamp(3)",
		},
		{
			mkCall(ExplicitCastName, types.Long, col("x", types.Text)),
			"cast(x AS bigint)",
		},
		{
			mkCall(TryCastName, types.Long, col("x", types.Text)),
			"try_cast(x AS bigint)",
		},
		{
			mkCall(ImplicitCastName, types.Long, col("x", types.Text), String("bigint")),
			"_cast(x, 'bigint')",
		},
		{
			mkCall(SubscriptName, types.Long, col("arr", longArr), Integer(1)),
			"arr[1]",
		},
		{
			mkCall(SubscriptName, types.Long,
				&Column{Name: "obj", Path: []string{"names"}, Type: longArr},
				Integer(1)),
			"obj[1]['names']",
		},
		{
			mkCall(SubscriptObjectName, types.Text, col("obj", types.Object), String("key")),
			"obj['key']",
		},
		{
			mkCall(SubscriptRecordName, types.Text, col("rec", types.Object), col("field", types.Text)),
			"(rec).field",
		},
		{
			mkCall("format", types.Text, String("%s: %d"), col("x", types.Long)),
			"format('%s: %d', x)",
		},
		{
			mkCall("op_||", types.Text, col("a", types.Text), col("b", types.Text)),
			"(a || b)",
		},
		{
			mkCall(ArrayName, longArr, Integer(1), Integer(2)),
			"_array(1, 2)",
		},
		{
			mkCall(MatchName, types.Bool,
				mkCall(ArrayName, types.MakeArray(types.Text), col("title", types.Text), col("body", types.Text)),
				String("wildlife"),
				String("best_fields")),
			"MATCH ((title, body), 'wildlife') USING best_fields",
		},
		{
			mkCall(MatchName, types.Bool, col("title", types.Text), String("wildlife")),
			"MATCH ((title), 'wildlife')",
		},
	}
	for _, tc := range testcases {
		got := ToString(tc.in, Simple)
		if got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
		// rendering is deterministic
		if again := ToString(tc.in, Simple); again != got {
			t.Errorf("second rendering %q != first %q", again, got)
		}
	}
}

func TestQualifiedStyle(t *testing.T) {
	sig := &Signature{
		Name:     FunctionName{Schema: "pg_catalog", Name: "format"},
		Kind:     Scalar,
		ArgTypes: []types.DataType{types.Text},
		Return:   types.Text,
	}
	c := NewCall(sig, []Node{String("hi")}, types.Text, nil)
	if got, want := ToString(c, Qualified), "pg_catalog.format('hi')"; got != want {
		t.Errorf("qualified: got %q, want %q", got, want)
	}
	if got, want := ToString(c, Simple), "format('hi')"; got != want {
		t.Errorf("simple: got %q, want %q", got, want)
	}
}

func TestQuote(t *testing.T) {
	testcases := []struct {
		in, want string
	}{
		{"plain", "'plain'"},
		{"it's", `'it\'s'`},
		{"tab\there", `'tab\there'`},
	}
	for _, tc := range testcases {
		if got := Quote(tc.in); got != tc.want {
			t.Errorf("Quote(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
