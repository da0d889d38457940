// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import (
	"fmt"
	"sort"
	"strings"
)

var variants = map[string]*Layout{
	CNTLayout.Name: CNTLayout,
}

// DefaultVariant is the variant used when none is configured
const DefaultVariant = "cnt"

// LookupVariant returns the layout registered under name
func LookupVariant(name string) (*Layout, error) {
	if name == "" {
		name = DefaultVariant
	}
	l, ok := variants[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (supported: %s)", name, strings.Join(Variants(), ", "))
	}
	return l, nil
}

// Variants returns the registered variant names, sorted
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
