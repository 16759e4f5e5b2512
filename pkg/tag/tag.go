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

// Package tag defines diagnostic tags and the immutable table used to
// resolve a trace category name to its effective enable state.
package tag

import (
	"fmt"
	"strings"
)

// Value is the enable state of a tag.
type Value int

const (
	// Disabled suppresses all output for the tag.
	Disabled Value = iota
	// Enabled emits trace output for the tag.
	Enabled
	// Break emits trace output and additionally requests a debugger break.
	Break
)

// String returns the lowercase name of the value.
func (v Value) String() string {
	switch v {
	case Disabled:
		return "disabled"
	case Enabled:
		return "enabled"
	case Break:
		return "break"
	default:
		return fmt.Sprintf("value(%d)", int(v))
	}
}

// Valid reports whether v is one of the three defined states.
func (v Value) Valid() bool {
	return v >= Disabled && v <= Break
}

// ParseValue converts a textual or numeric representation to a Value.
// Accepted forms: "disabled"/"enabled"/"break" (case-insensitive) and
// "0"/"1"/"2".
func ParseValue(s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "0":
		return Disabled, nil
	case "enabled", "on", "1":
		return Enabled, nil
	case "break", "2":
		return Break, nil
	default:
		return Disabled, fmt.Errorf("invalid tag value %q", s)
	}
}

// Wildcard is the suffix marking a tag as a prefix-match tag.
const Wildcard = "*"

// Tag is an immutable named diagnostic category.
//
// A name ending in "*" matches any queried name sharing the characters
// before the marker; the bare name "*" matches everything. All name
// comparisons are case-insensitive.
type Tag struct {
	name      string
	value     Value
	prefixLen int
}

// New constructs a Tag. The prefix length is derived from the name once
// here and never recomputed: len(name)-1 for wildcard names, -1 otherwise.
func New(name string, value Value) Tag {
	prefixLen := -1
	if strings.HasSuffix(name, Wildcard) {
		prefixLen = len(name) - 1
	}
	return Tag{name: name, value: value, prefixLen: prefixLen}
}

// Name returns the tag's name, including any wildcard marker.
func (t Tag) Name() string { return t.name }

// Value returns the tag's enable state.
func (t Tag) Value() Value { return t.value }

// IsWildcard reports whether the tag participates in prefix matching.
func (t Tag) IsWildcard() bool { return t.prefixLen >= 0 }

// WithValue returns a copy of the tag with a different enable state.
func (t Tag) WithValue(v Value) Tag {
	t.value = v
	return t
}

// matchesExact reports whether name equals the tag's name, ignoring case.
func (t Tag) matchesExact(name string) bool {
	return strings.EqualFold(t.name, name)
}

// matchesPrefix reports whether name starts with the tag's wildcard
// prefix, ignoring case. Always false for exact-match tags.
func (t Tag) matchesPrefix(name string) bool {
	if t.prefixLen < 0 || len(name) < t.prefixLen {
		return false
	}
	return strings.EqualFold(t.name[:t.prefixLen], name[:t.prefixLen])
}
