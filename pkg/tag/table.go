// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tag

// Table is an ordered, immutable collection of tags.
//
// A table is built once per configuration load and then shared read-only
// between any number of goroutines; reloads build a replacement table
// rather than mutating one in place.
type Table struct {
	tags []Tag
}

// NewTable builds a table from tags in the given order. The slice is
// copied so later changes to it cannot leak into the table.
func NewTable(tags []Tag) *Table {
	owned := make([]Tag, len(tags))
	copy(owned, tags)
	return &Table{tags: owned}
}

// Len returns the number of tags in the table.
func (t *Table) Len() int { return len(t.tags) }

// Tags returns a copy of the table's tags in table order.
func (t *Table) Tags() []Tag {
	out := make([]Tag, len(t.tags))
	copy(out, t.tags)
	return out
}

// Resolve returns the effective enable state for name.
//
// Resolution order:
//  1. the first tag whose name matches exactly (case-insensitive);
//  2. otherwise the wildcard tag with the longest matching prefix,
//     ties broken by table order;
//  3. otherwise Disabled.
func (t *Table) Resolve(name string) Value {
	if tg, ok := t.FindExact(name); ok {
		return tg.Value()
	}

	best := -1
	value := Disabled
	for _, tg := range t.tags {
		if tg.prefixLen <= best {
			continue // ties keep the earlier tag
		}
		if tg.matchesPrefix(name) {
			best = tg.prefixLen
			value = tg.value
		}
	}
	return value
}

// FindExact returns the first tag whose name matches name exactly,
// ignoring case. Wildcard tags only match their literal name here
// (marker included); no prefix matching is performed.
func (t *Table) FindExact(name string) (Tag, bool) {
	for _, tg := range t.tags {
		if tg.matchesExact(name) {
			return tg, true
		}
	}
	return Tag{}, false
}
