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

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileDoc is the on-disk YAML document. Entries are a sequence, not a
// mapping, so store order survives a round-trip.
type fileDoc struct {
	Tags []Entry `yaml:"tags"`
}

// File is a YAML-file-backed Source.
//
// Persist writes a temporary file in the same directory and renames it
// over the target, so readers (and the file notifier) never observe a
// torn file.
type File struct {
	path string
}

// NewFile creates a file source for path. The file does not need to
// exist yet; LoadAll on a missing file reports an error, which the
// loader treats as "fall back to defaults".
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// LoadAll reads and decodes the whole file.
func (f *File) LoadAll(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read tag file: %w", err)
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tag file %s: %w", f.path, err)
	}
	return doc.Tags, nil
}

// Load returns the named entry from the file, ignoring case.
func (f *File) Load(ctx context.Context, name string) (Entry, error) {
	entries, err := f.LoadAll(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Persist atomically replaces the file's contents with entries.
func (f *File) Persist(ctx context.Context, entries []Entry) error {
	data, err := yaml.Marshal(fileDoc{Tags: entries})
	if err != nil {
		return fmt.Errorf("encode tag file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tag file directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tags-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp tag file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp tag file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp tag file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace tag file: %w", err)
	}
	return nil
}
