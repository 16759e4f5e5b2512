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

package trace

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tombee/tracetag/pkg/source"
	"github.com/tombee/tracetag/pkg/tag"
)

// buildTable merges the default tag set with overrides from src into a
// fresh table.
//
// Merge rules:
//   - a stored entry whose name matches a default (case-insensitively)
//     overrides that default's value in place, keeping table position;
//   - any other stored entry is appended after the defaults, in store
//     order;
//   - a stored value outside the valid range counts as Disabled and
//     marks the store for repair.
//
// The returned flag reports whether the store should be rewritten with
// the merged set: true when it held invalid values or is missing
// entries (empty store included). A failed read is not a repair signal;
// the table is built from defaults alone and the flag stays false.
func buildTable(ctx context.Context, defaults []tag.Tag, src source.Source, logger *slog.Logger) (*tag.Table, bool) {
	tags := make([]tag.Tag, len(defaults))
	copy(tags, defaults)

	if src == nil {
		return tag.NewTable(tags), false
	}

	entries, err := src.LoadAll(ctx)
	if err != nil {
		logger.Debug("tag store unavailable, using defaults", "error", err)
		return tag.NewTable(tags), false
	}

	needsPersist := len(entries) == 0

	for _, e := range entries {
		value := tag.Value(e.Value)
		if !value.Valid() {
			logger.Warn("invalid stored tag value, treating as disabled",
				"tag", e.Name, "value", e.Value)
			value = tag.Disabled
			needsPersist = true
		}

		if i := indexOfName(tags, e.Name); i >= 0 {
			tags[i] = tags[i].WithValue(value)
		} else {
			tags = append(tags, tag.New(e.Name, value))
		}
	}

	// Fewer stored entries than merged tags means the store lacks some
	// defaults and should be refreshed.
	if len(entries) < len(tags) {
		needsPersist = true
	}

	return tag.NewTable(tags), needsPersist
}

// entriesFor converts a table back into store entries for persistence.
func entriesFor(t *tag.Table) []source.Entry {
	tags := t.Tags()
	entries := make([]source.Entry, 0, len(tags))
	for _, tg := range tags {
		entries = append(entries, source.Entry{Name: tg.Name(), Value: int(tg.Value())})
	}
	return entries
}

func indexOfName(tags []tag.Tag, name string) int {
	for i, tg := range tags {
		if strings.EqualFold(tg.Name(), name) {
			return i
		}
	}
	return -1
}
