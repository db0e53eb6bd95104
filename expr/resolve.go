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
)

// Resolver resolves a function name plus concrete argument
// types to a signature. Call nodes never resolve anything
// themselves; they only store the result.
type Resolver interface {
	ResolveFunction(name FunctionName, argTypes []types.DataType) (*Signature, error)
}

// ResolutionError is returned when no overload of a function
// accepts the given argument types (or the function does not
// exist at all).
type ResolutionError struct {
	Name     FunctionName
	ArgTypes []types.DataType
}

func (e *ResolutionError) Error() string {
	args := make([]string, len(e.ArgTypes))
	for i := range e.ArgTypes {
		args[i] = e.ArgTypes[i].String()
	}
	return fmt.Sprintf("unknown function: %s(%s)", e.Name, strings.Join(args, ", "))
}

// Registry is an in-memory Resolver. Overloads registered
// first win ties among convertible candidates.
type Registry struct {
	overloads map[FunctionName][]*Signature
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{overloads: make(map[FunctionName][]*Signature)}
}

// Register adds an overload.
func (reg *Registry) Register(sig *Signature) {
	reg.overloads[sig.Name] = append(reg.overloads[sig.Name], sig)
}

// ResolveFunction picks the overload whose parameter types
// match the argument types exactly, falling back to the first
// same-arity overload every argument is convertible to.
func (reg *Registry) ResolveFunction(name FunctionName, argTypes []types.DataType) (*Signature, error) {
	candidates := reg.overloads[name]
	for _, sig := range candidates {
		if slices.EqualFunc(sig.ArgTypes, argTypes, types.Equal) {
			return sig, nil
		}
	}
	for _, sig := range candidates {
		if len(sig.ArgTypes) != len(argTypes) {
			continue
		}
		ok := true
		for i := range argTypes {
			if !types.ConvertibleTo(argTypes[i], sig.ArgTypes[i]) {
				ok = false
				break
			}
		}
		if ok {
			return sig, nil
		}
	}
	return nil, &ResolutionError{Name: name, ArgTypes: argTypes}
}
