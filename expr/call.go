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

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"

	"github.com/karstdb/karst/types"
	"github.com/karstdb/karst/wire"
)

// Names of the builtin functions and operators the renderer
// and the cast resolver treat specially. The underscore-prefixed
// ones are internal pseudo-functions that never appear verbatim
// in user queries.
const (
	MatchName            = "match"
	SubscriptName        = "subscript"
	SubscriptObjectName  = "subscript_obj"
	SubscriptRecordName  = "_subscript_record"
	CurrentSchemaName    = "current_schema"
	CurrentSchemasName   = "current_schemas"
	IsNullName           = "op_isnull"
	NotName              = "op_not"
	CountName            = "count"
	CurrentTimestampName = "current_timestamp"

	// ArrayName is the array-constructor pseudo-function:
	// a value literal in function clothing. See (*Call).Cast.
	ArrayName = "_array"

	ExplicitCastName = "cast"
	ImplicitCastName = "_cast"
	TryCastName      = "try_cast"

	// OperatorPrefix marks generic binary operators
	// (op_=, op_and, ...).
	OperatorPrefix = "op_"
	// AnyOperatorPrefix marks comparisons against every
	// element of an array operand (any_=, any_like, ...).
	AnyOperatorPrefix = "any_"
	// ExtractPrefix marks the per-field extract functions
	// (extract_year, extract_epoch, ...).
	ExtractPrefix = "extract_"
)

// Call is a function or operator application.
//
// A Call is immutable: arguments are captured at construction
// and never written again, and every transformation produces a
// new Call. The legacy descriptor is always present and kept
// consistent with the signature, so peers below
// wire.SignatureVersion can still interpret the node; whenever
// a signature is bound it is authoritative and every accessor
// prefers it.
type Call struct {
	info   LegacyInfo
	sig    *Signature
	args   []Node
	ret    types.DataType
	filter Node
	class  renderClass
}

// NewCall builds a call from a resolved signature. The legacy
// descriptor is derived automatically. filter may be nil; a
// non-nil filter is only meaningful on aggregate calls and
// upstream analysis is responsible for guaranteeing that.
func NewCall(sig *Signature, args []Node, ret types.DataType, filter Node) *Call {
	return &Call{
		info:   legacyFor(sig, args, ret),
		sig:    sig,
		args:   slices.Clone(args),
		ret:    ret,
		filter: filter,
		class:  classify(sig.Name.Name),
	}
}

// Name returns the unqualified callee name, preferring the
// signature and falling back to the legacy descriptor when no
// signature is bound (calls received from older peers).
func (c *Call) Name() string {
	if c.sig != nil {
		return c.sig.Name.Name
	}
	return c.info.Name.Name
}

// QualifiedName returns the callee identity, with the same
// fallback contract as Name.
func (c *Call) QualifiedName() FunctionName {
	if c.sig != nil {
		return c.sig.Name
	}
	return c.info.Name
}

// Kind returns the callee kind, with the same fallback
// contract as Name.
func (c *Call) Kind() Kind {
	if c.sig != nil {
		return c.sig.Kind
	}
	return c.info.Kind
}

// HasFeature returns whether the callee declares all flags in
// f, with the same fallback contract as Name.
func (c *Call) HasFeature(f Features) bool {
	if c.sig != nil {
		return c.sig.HasFeature(f)
	}
	return c.info.Features.Has(f)
}

// Deterministic returns whether the callee is declared
// deterministic, with the same fallback contract as Name.
func (c *Call) Deterministic() bool {
	return c.HasFeature(FeatureDeterministic)
}

// Arguments returns the child expressions in operand order.
// Callers must not modify the returned slice.
func (c *Call) Arguments() []Node { return c.args }

// Filter returns the FILTER (WHERE ...) predicate of an
// aggregate call, or nil.
func (c *Call) Filter() Node { return c.filter }

// Signature returns the resolved signature, or nil when the
// call was received from a peer below wire.SignatureVersion.
func (c *Call) Signature() *Signature { return c.sig }

// ValueType returns the type the call evaluates to.
func (c *Call) ValueType() types.DataType { return c.ret }

// Info returns the legacy descriptor.
//
// Deprecated: use Signature, or the accessors on Call, which
// fall back to the descriptor automatically. Only the wire
// codec needs the descriptor directly.
func (c *Call) Info() LegacyInfo { return c.info }

// Equals returns whether two calls have equal arguments,
// legacy descriptor, and filter. The resolved signature is
// deliberately excluded: two calls that resolved to different
// overloads but describe the same computation compare equal.
func (c *Call) Equals(n Node) bool {
	o, ok := n.(*Call)
	if !ok {
		return false
	}
	return slices.EqualFunc(c.args, o.args, Equal) &&
		c.info.equals(&o.info) &&
		Equal(c.filter, o.filter)
}

// arbitrary but fixed
const hashKey0, hashKey1 = 0x6b61727374646221, 0x657870722e43616c

// Hash returns a hash consistent with Equals: equal calls hash
// equally. The call is hashed through its pre-signature wire
// encoding, which covers exactly the fields Equals compares.
func (c *Call) Hash() uint64 {
	w := wire.NewWriter(wire.FilterVersion)
	c.Encode(w)
	return siphash.Hash(hashKey0, hashKey1, w.Bytes())
}

// Encode writes the call to a versioned stream.
//
// The field order is fixed and every field added after the
// baseline is gated by a minimum version: the legacy
// descriptor first (every version understands it), the
// optional filter at FilterVersion, the argument list, then
// the signature and explicit result type at SignatureVersion.
// Decode must mirror this order exactly; a mismatch corrupts
// the stream for every peer.
func (c *Call) Encode(w *wire.Writer) {
	w.WriteUvarint(tagCall)
	c.info.encode(w)
	if w.Version().AtLeast(wire.FilterVersion) {
		encodeOptional(w, c.filter)
	}
	w.WriteUvarint(uint64(len(c.args)))
	for i := range c.args {
		c.args[i].Encode(w)
	}
	if w.Version().AtLeast(wire.SignatureVersion) {
		w.WriteBool(c.sig != nil)
		if c.sig != nil {
			c.sig.encode(w)
			types.Encode(w, c.ret)
		}
	}
}

// decodeCall mirrors Encode. The caller has already consumed
// the node tag. When the stream (or the peer) predates
// SignatureVersion the result type is re-derived from the
// legacy descriptor's declared return type.
func decodeCall(r *wire.Reader) (*Call, error) {
	var c Call
	var err error
	if c.info, err = decodeLegacyInfo(r); err != nil {
		return nil, err
	}
	if r.Version().AtLeast(wire.FilterVersion) {
		if c.filter, err = decodeOptional(r); err != nil {
			return nil, err
		}
	}
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, r.Corrupt(fmt.Sprintf("argument count %d exceeds %d remaining bytes", n, r.Len()))
	}
	c.args = make([]Node, 0, n)
	for i := 0; i < int(n); i++ {
		arg, err := decode(r)
		if err != nil {
			return nil, err
		}
		c.args = append(c.args, arg)
	}
	c.ret = c.info.Return
	if r.Version().AtLeast(wire.SignatureVersion) {
		has, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if has {
			if c.sig, err = decodeSignature(r); err != nil {
				return nil, err
			}
			if c.ret, err = types.Decode(r); err != nil {
				return nil, err
			}
		}
	}
	c.class = classify(c.Name())
	return &c, nil
}

func (c *Call) walk(v Visitor) {
	for i := range c.args {
		Walk(v, c.args[i])
	}
	if c.filter != nil {
		Walk(v, c.filter)
	}
}

func (c *Call) rewrite(r Rewriter) Node {
	args := make([]Node, len(c.args))
	for i := range c.args {
		args[i] = Rewrite(r, c.args[i])
	}
	var filter Node
	if c.filter != nil {
		filter = Rewrite(r, c.filter)
	}
	return c.remake(args, c.ret, filter)
}

// remake builds a new call with the same identity but new
// arguments, result type, and filter, keeping the legacy
// descriptor consistent with the new shape.
func (c *Call) remake(args []Node, ret types.DataType, filter Node) *Call {
	info := c.info
	info.ArgTypes = argumentTypes(args)
	info.Return = ret
	return &Call{
		info:   info,
		sig:    c.sig,
		args:   args,
		ret:    ret,
		filter: filter,
		class:  c.class,
	}
}
