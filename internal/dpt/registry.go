package dpt

import (
	"fmt"
	"maps"
	"slices"

	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// Resolver returns the DPT of a group address.
type Resolver interface {
	Lookup(ga cemi.GroupAddress) (DPT, bool)
}

// Registry maps group addresses to their DPT. The zero value is empty and
// resolves nothing.
type Registry map[cemi.GroupAddress]DPT

// NewRegistry builds a registry from "main/middle/sub" keys and DPT
// identifiers, as found in the group_types config section.
//
// Returns:
//   - Registry: Parsed mapping
//   - error: First invalid address or DPT, in key order
func NewRegistry(types map[string]string) (Registry, error) {
	reg := make(Registry, len(types))
	for _, key := range slices.Sorted(maps.Keys(types)) {
		ga, err := cemi.ParseGroupAddress(key)
		if err != nil {
			return nil, fmt.Errorf("group address %q: %w", key, err)
		}
		d, err := Parse(types[key])
		if err != nil {
			return nil, fmt.Errorf("group address %s: %w", key, err)
		}
		reg[ga] = d
	}
	return reg, nil
}

// Lookup implements Resolver.
func (r Registry) Lookup(ga cemi.GroupAddress) (DPT, bool) {
	d, ok := r[ga]
	return d, ok
}

// Fixed resolves every group address to d. Useful when decoding a single
// frame whose type is known.
type Fixed DPT

// Lookup implements Resolver.
func (f Fixed) Lookup(cemi.GroupAddress) (DPT, bool) {
	return DPT(f), f != ""
}
