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
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/karstdb/karst/types"
	"github.com/karstdb/karst/wire"
)

func roundtrip(t *testing.T, n Node, v wire.Version) Node {
	t.Helper()
	w := wire.NewWriter(v)
	n.Encode(w)
	r := wire.NewReader(w.Bytes(), v)
	got, err := Decode(r)
	if err != nil {
		t.Fatalf("decode at %s: %v", v, err)
	}
	if r.Len() != 0 {
		t.Fatalf("decode at %s left %d bytes unread", v, r.Len())
	}
	return got
}

func TestNodeRoundtrip(t *testing.T) {
	gt := mkCall("op_>", types.Bool, col("x", types.Long), Integer(0))
	nodes := []Node{
		Integer(42),
		Integer(-17),
		Float(2.5),
		String("hello"),
		Bool(true),
		Null{},
		&Column{Name: "obj", Path: []string{"a", "b"}, Type: types.MakeArray(types.Text)},
		mkCall("op_+", types.Long, Integer(1), Integer(2)),
		mkAgg(CountName, types.Long, gt),
		mkCall("format", types.Text, String("%s"), mkCall("op_+", types.Long, Integer(1), col("x", types.Long))),
	}
	versions := []wire.Version{wire.V1_0_0, wire.V1_1_0, wire.V1_2_0}
	for _, n := range nodes {
		for _, v := range versions {
			got := roundtrip(t, n, v)
			// capability-adjusted comparison: below FilterVersion
			// the filter is dropped in transit
			want := n
			if c, ok := n.(*Call); ok && !v.AtLeast(wire.FilterVersion) && c.Filter() != nil {
				want = c.remake(c.Arguments(), c.ValueType(), nil)
			}
			if !Equal(got, want) {
				t.Errorf("%s at %s: got %s", ToString(n, Simple), v, ToString(got, Simple))
			}
		}
	}
}

func TestRoundtripCapabilities(t *testing.T) {
	gt := mkCall("op_>", types.Bool, col("x", types.Long), Integer(0))
	n := mkAgg(CountName, types.Long, gt)
	for _, v := range []wire.Version{wire.V1_0_0, wire.V1_1_0, wire.V1_2_0} {
		got := roundtrip(t, n, v).(*Call)
		if got.Name() != CountName {
			t.Errorf("at %s: name %q", v, got.Name())
		}
		if !types.Equal(got.ValueType(), types.Long) {
			t.Errorf("at %s: result type %s", v, got.ValueType())
		}
		wantFilter := v.AtLeast(wire.FilterVersion)
		if (got.Filter() != nil) != wantFilter {
			t.Errorf("at %s: filter present = %v, want %v", v, got.Filter() != nil, wantFilter)
		}
		wantSig := v.AtLeast(wire.SignatureVersion)
		if (got.Signature() != nil) != wantSig {
			t.Errorf("at %s: signature present = %v, want %v", v, got.Signature() != nil, wantSig)
		}
		if got.Kind() != Aggregate {
			t.Errorf("at %s: kind %s", v, got.Kind())
		}
		if !got.Deterministic() {
			t.Errorf("at %s: lost determinism flag", v)
		}
	}
}

// a signature never survives transit below SignatureVersion;
// the receiver re-derives the result type from the legacy
// descriptor's declared return type
func TestSignatureDroppedBelowThreshold(t *testing.T) {
	n := mkCall("op_+", types.Long, Integer(1), Integer(2))
	if n.Signature() == nil {
		t.Fatal("freshly constructed call has no signature")
	}
	got := roundtrip(t, n, wire.V1_1_0).(*Call)
	if got.Signature() != nil {
		t.Error("signature survived transit below SignatureVersion")
	}
	if !types.Equal(got.ValueType(), got.Info().Return) {
		t.Errorf("result type %s != declared return type %s", got.ValueType(), got.Info().Return)
	}
	// the BWC accessors keep working off the legacy descriptor
	if got.Name() != "op_+" {
		t.Errorf("name %q", got.Name())
	}
	if got.QualifiedName() != (FunctionName{Name: "op_+"}) {
		t.Errorf("qualified name %v", got.QualifiedName())
	}
	if got.Kind() != Scalar {
		t.Errorf("kind %s", got.Kind())
	}
	// and equality still holds against the original
	if !got.Equals(n) {
		t.Error("decoded call not equal to original")
	}
}

func TestDecodeCorrupt(t *testing.T) {
	n := mkCall("op_+", types.Long, Integer(1), Integer(2))
	w := wire.NewWriter(wire.Current)
	n.Encode(w)
	full := w.Bytes()

	// every truncation must fail cleanly, never panic
	for i := 0; i < len(full); i++ {
		r := wire.NewReader(full[:i], wire.Current)
		if _, err := Decode(r); err == nil {
			t.Errorf("truncation at %d decoded successfully", i)
		}
	}

	// unknown node tag
	r := wire.NewReader([]byte{0x7f}, wire.Current)
	_, err := Decode(r)
	var ce *wire.CorruptError
	if !errors.As(err, &ce) {
		t.Fatalf("unknown tag: got %v, want *wire.CorruptError", err)
	}

	// writer and reader must agree on the version: a 1.2
	// stream read at 1.0 either errors out or misparses
	// (here: the filter presence flag aliases the argument
	// count, leaving trailing garbage)
	r = wire.NewReader(full, wire.V1_0_0)
	if dec, err := Decode(r); err == nil {
		if r.Len() == 0 && dec.Equals(n) {
			t.Error("version-mismatched decode produced the original node")
		}
	}
}

// end to end: what one node seals and ships, another decodes
func TestShipViaEnvelope(t *testing.T) {
	n := mkAgg(CountName, types.Long, mkCall("op_>", types.Bool, col("x", types.Long), Integer(0)))
	w := wire.NewWriter(wire.V1_1_0)
	n.Encode(w)
	env, err := wire.Seal(uuid.New(), wire.V1_1_0, "zstd", w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	received, err := wire.UnmarshalEnvelope(env.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	payload, err := received.Open()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(wire.NewReader(payload, received.Version))
	if err != nil {
		t.Fatal(err)
	}
	want := "count(*) FILTER (WHERE (x > 0))"
	if ToString(got, Simple) != want {
		t.Errorf("got %s, want %s", ToString(got, Simple), want)
	}
}

func TestCallHash(t *testing.T) {
	a := mkCall("op_+", types.Long, Integer(1), Integer(2))
	b := mkCall("op_+", types.Long, Integer(1), Integer(2))
	if a.Hash() != b.Hash() {
		t.Error("equal calls hash differently")
	}
	c := mkCall("op_+", types.Long, Integer(1), Integer(3))
	if a.Hash() == c.Hash() {
		t.Error("unequal calls share a hash")
	}
	// hash is consistent with equality: a differing signature
	// changes neither
	alt := NewCall(makeSig("op_+", Scalar, types.Long, types.Long, types.Long), []Node{Integer(1), Integer(2)}, types.Long, nil)
	altSig := *alt.Signature()
	altSig.Features |= FeatureStrict
	withAlt := &Call{
		info:   alt.info,
		sig:    &altSig,
		args:   alt.args,
		ret:    alt.ret,
		filter: nil,
		class:  alt.class,
	}
	if a.Hash() != withAlt.Hash() {
		t.Error("signature leaked into hash")
	}
}
