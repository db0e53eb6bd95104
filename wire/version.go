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

// Package wire implements the versioned binary stream format
// used to ship expression trees and query plans between
// cluster nodes.
//
// A cluster undergoing a rolling upgrade contains nodes running
// different releases, so every stream is bound to the lowest
// protocol version the two peers have negotiated. Fields are
// never removed from the format, only appended behind a minimum
// version gate, which keeps any two releases interoperable as
// long as encode and decode walk fields in the identical order.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a wire protocol version, ordered totally
// so that version gates are simple comparisons.
type Version uint32

// MakeVersion builds a Version from release coordinates.
func MakeVersion(major, minor, patch uint8) Version {
	return Version(major)<<16 | Version(minor)<<8 | Version(patch)
}

const (
	// V1_0_0 is the baseline format: legacy function
	// descriptor plus the argument list.
	V1_0_0 Version = 1 << 16
	// V1_1_0 added the aggregate FILTER clause.
	V1_1_0 Version = 1<<16 | 1<<8
	// V1_2_0 added resolved signatures and the explicit
	// result type.
	V1_2_0 Version = 1<<16 | 2<<8

	// FilterVersion is the minimum version that carries
	// the optional filter subtree of a function call.
	FilterVersion = V1_1_0
	// SignatureVersion is the minimum version that carries
	// resolved signatures and explicit result types.
	SignatureVersion = V1_2_0

	// Current is the version written by this release.
	Current = V1_2_0
)

// AtLeast returns whether v supports features
// introduced in min.
func (v Version) AtLeast(min Version) bool { return v >= min }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v>>16&0xff, v>>8&0xff, v&0xff)
}

// ParseVersion parses a "major.minor.patch" string.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("wire: bad version %q", s)
	}
	var coords [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("wire: bad version %q: %w", s, err)
		}
		coords[i] = uint8(n)
	}
	return MakeVersion(coords[0], coords[1], coords[2]), nil
}
