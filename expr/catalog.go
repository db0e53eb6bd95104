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

	"sigs.k8s.io/yaml"

	"github.com/karstdb/karst/types"
)

// catalogEntry is one function overload in a builtin catalog
// manifest. The yaml keys mirror Signature.
type catalogEntry struct {
	Schema   string   `json:"schema,omitempty"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Features []string `json:"features,omitempty"`
	Args     []string `json:"args,omitempty"`
	Returns  string   `json:"returns"`
}

// LoadCatalog builds a Registry from a yaml builtin manifest:
//
//	- name: add
//	  kind: scalar
//	  features: [deterministic, strict]
//	  args: [bigint, bigint]
//	  returns: bigint
//
// Manifests let nodes of different releases agree on the
// overload set a query was analyzed against.
func LoadCatalog(data []byte) (*Registry, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("expr: parsing catalog: %w", err)
	}
	reg := NewRegistry()
	for i := range entries {
		sig, err := entries[i].signature()
		if err != nil {
			return nil, fmt.Errorf("expr: catalog entry %d (%s): %w", i, entries[i].Name, err)
		}
		reg.Register(sig)
	}
	return reg, nil
}

func (e *catalogEntry) signature() (*Signature, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("missing function name")
	}
	kind, err := ParseKind(e.Kind)
	if err != nil {
		return nil, err
	}
	var features Features
	for _, f := range e.Features {
		flag, err := ParseFeature(f)
		if err != nil {
			return nil, err
		}
		features |= flag
	}
	sig := &Signature{
		Name:     FunctionName{Schema: e.Schema, Name: e.Name},
		Kind:     kind,
		Features: features,
	}
	for _, a := range e.Args {
		t, err := types.Parse(a)
		if err != nil {
			return nil, err
		}
		sig.ArgTypes = append(sig.ArgTypes, t)
	}
	if sig.Return, err = types.Parse(e.Returns); err != nil {
		return nil, err
	}
	return sig, nil
}
