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

package tags

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/tracetag/pkg/tag"
)

// newTestRoot builds a minimal root with the persistent store flags,
// mirroring the real CLI wiring.
func newTestRoot(subcommands ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "tracetag", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "", "")
	root.PersistentFlags().String("db", "", "")
	root.AddCommand(subcommands...)
	return root
}

func run(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitListRoundTrip_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	root := newTestRoot(NewInitCommand(), NewListCommand())

	out, err := run(t, root, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	out, err = run(t, root, "list", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Assert")
	assert.Contains(t, out, "break")
	assert.Contains(t, out, "General")
}

func TestSetGet_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	root := newTestRoot(NewSetCommand(), NewGetCommand())

	_, err := run(t, root, "set", "Net*", "enabled", "--config", path)
	require.NoError(t, err)

	out, err := run(t, root, "get", "net*", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Net*")
	assert.Contains(t, out, "enabled")
}

func TestSet_InvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	root := newTestRoot(NewSetCommand())

	_, err := run(t, root, "set", "X", "loud", "--config", path)
	require.Error(t, err)
}

func TestGet_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	root := newTestRoot(NewInitCommand(), NewGetCommand())

	_, err := run(t, root, "init", "--config", path)
	require.NoError(t, err)

	_, err = run(t, root, "get", "Nope", "--config", path)
	require.Error(t, err)
}

func TestList_PatternFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	root := newTestRoot(NewSetCommand(), NewListCommand())

	for _, args := range [][]string{
		{"set", "Net.Conn", "enabled", "--config", path},
		{"set", "Net.Listener", "break", "--config", path},
		{"set", "Storage", "enabled", "--config", path},
	} {
		_, err := run(t, root, args...)
		require.NoError(t, err)
	}

	out, err := run(t, root, "list", "--pattern", "Net.*", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Net.Conn")
	assert.Contains(t, out, "Net.Listener")
	assert.NotContains(t, out, "Storage")
}

func TestResolve_MergesDefaultsAndStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	root := newTestRoot(NewSetCommand(), NewResolveCommand())

	_, err := run(t, root, "set", "Some*", "enabled", "--config", path)
	require.NoError(t, err)

	out, err := run(t, root, "resolve", "SomePrefixThing", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "enabled")

	// Defaults shine through: Assert is Break even though the store
	// only holds the wildcard.
	out, err = run(t, root, "resolve", tag.Assert, "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "break")

	out, err = run(t, root, "resolve", "Unregistered", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")
}

func TestInitSetList_SQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tags.db")
	root := newTestRoot(NewInitCommand(), NewSetCommand(), NewListCommand())

	_, err := run(t, root, "init", "--db", db)
	require.NoError(t, err)

	_, err = run(t, root, "set", "Hot*", "break", "--db", db)
	require.NoError(t, err)

	out, err := run(t, root, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Hot*")
	assert.Contains(t, out, tag.Monitor)
}
