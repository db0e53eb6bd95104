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
	"github.com/karstdb/karst/wire"
)

func TestCallEquals(t *testing.T) {
	a := mkCall("op_+", types.Long, Integer(1), Integer(2))
	b := mkCall("op_+", types.Long, Integer(1), Integer(2))
	if !a.Equals(b) {
		t.Error("identically built calls are not equal")
	}
	if a.Equals(mkCall("op_+", types.Long, Integer(1), Integer(3))) {
		t.Error("calls with different arguments are equal")
	}
	if a.Equals(mkCall("op_-", types.Long, Integer(1), Integer(2))) {
		t.Error("calls with different callees are equal")
	}
	gt := mkCall("op_>", types.Bool, col("x", types.Long), Integer(0))
	if mkAgg(CountName, types.Long, gt).Equals(mkAgg(CountName, types.Long, nil)) {
		t.Error("calls with different filters are equal")
	}
	if a.Equals(Integer(3)) {
		t.Error("call equals a literal")
	}
}

// Equality deliberately ignores the resolved signature: two
// calls with different overload resolutions but identical
// arguments, legacy descriptor, and filter compare equal.
// (Watch this property: it means plan caching cannot tell
// differently-resolved-but-textually-identical calls apart.)
func TestEqualsIgnoresSignature(t *testing.T) {
	a := mkCall("op_+", types.Long, Integer(1), Integer(2))
	altSig := *a.Signature()
	altSig.Features |= FeatureStrict
	b := &Call{
		info:   a.info,
		sig:    &altSig,
		args:   a.args,
		ret:    a.ret,
		filter: nil,
		class:  a.class,
	}
	if !a.Equals(b) {
		t.Error("signature difference broke equality")
	}
	if a.Hash() != b.Hash() {
		t.Error("signature difference broke hash consistency")
	}
	// and the unsigned twin from an old peer is equal too
	unsigned := roundtrip(t, a, wire.V1_1_0).(*Call)
	if unsigned.Signature() != nil {
		t.Fatal("expected no signature after 1.1 transit")
	}
	if !a.Equals(unsigned) {
		t.Error("losing the signature broke equality")
	}
}

func TestRewrite(t *testing.T) {
	n := mkCall("op_+", types.Long, Integer(1), col("x", types.Long))
	got := Rewrite(renameColumns{}, n).(*Call)
	if want := "(1 + y)"; ToString(got, Simple) != want {
		t.Errorf("got %s, want %s", ToString(got, Simple), want)
	}
	// the original tree is untouched
	if want := "(1 + x)"; ToString(n, Simple) != want {
		t.Errorf("original mutated to %s", ToString(n, Simple))
	}
}

type renameColumns struct{}

func (renameColumns) Walk(Node) Rewriter { return renameColumns{} }

func (renameColumns) Rewrite(n Node) Node {
	if c, ok := n.(*Column); ok && c.Name == "x" {
		return &Column{Name: "y", Path: c.Path, Type: c.Type}
	}
	return n
}

func TestWalk(t *testing.T) {
	gt := mkCall("op_>", types.Bool, col("x", types.Long), Integer(0))
	n := mkAgg(CountName, types.Long, gt, col("v", types.Long))
	count := 0
	Walk(visitorFunc(func(n Node) bool {
		if n != nil {
			count++
		}
		return true
	}), n)
	// count call, v, filter call, x, 0
	if count != 5 {
		t.Errorf("visited %d nodes, want 5", count)
	}
}

type visitorFunc func(Node) bool

func (f visitorFunc) Visit(n Node) Visitor {
	if f(n) {
		return f
	}
	return nil
}
