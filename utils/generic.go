/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package utils

import "sort"

// Map applies fn to every item of in, keeping only the items for which fn returns true.
func Map[E, F any](in []E, fn func(item E) (F, bool)) []F {
	out := make([]F, 0, len(in))
	for i := range in {
		add, ok := fn(in[i])
		if !ok {
			continue
		}
		out = append(out, add)
	}
	return out
}

// ToList converts a map into a list, sorted by key.
func ToList[F, G any](in map[string]F, fn func(key string, value F) G) []G {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]G, 0, len(in))
	for _, k := range keys {
		out = append(out, fn(k, in[k]))
	}
	return out
}
