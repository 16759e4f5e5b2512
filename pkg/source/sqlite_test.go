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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "tags.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_RoundTripOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	entries := []Entry{
		{Name: "Zeta", Value: 1},
		{Name: "Alpha", Value: 2},
		{Name: "Mid*", Value: 0},
	}
	require.NoError(t, s.Persist(ctx, entries))

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, got, "LoadAll must preserve insertion order, not sort by name")
}

func TestSQLite_LoadAll_Empty(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_Load_CaseInsensitive(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Net.Conn", 2))

	e, err := s.Load(ctx, "NET.CONN")
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "Net.Conn", Value: 2}, e)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_Set_Upsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "General", 1))
	require.NoError(t, s.Set(ctx, "general", 0))

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "case-insensitive upsert must not duplicate")
	assert.Equal(t, 0, got[0].Value)
}

func TestSQLite_Version_ChangesOnWrite(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	v1, err := s.Version(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "A", 1))
	v2, err := s.Version(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	require.NoError(t, s.Persist(ctx, []Entry{{Name: "B", Value: 1}}))
	v3, err := s.Version(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, v2, v3)

	// No writes: version is stable.
	v4, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v3, v4)
}
