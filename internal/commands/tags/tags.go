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

// Package tags implements the tracetag subcommands that read and write
// the external tag store.
package tags

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/tombee/tracetag/pkg/source"
	"github.com/tombee/tracetag/pkg/tag"
	"github.com/tombee/tracetag/pkg/trace"
)

// store bundles a Source with its cleanup.
type store struct {
	src   source.Source
	close func() error
}

// openStore selects the tag store from the persistent flags: --db wins
// over --config, which falls back to the default engine's config path.
func openStore(cmd *cobra.Command) (*store, error) {
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		db, err := source.NewSQLite(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open tag database: %w", err)
		}
		return &store{src: db, close: db.Close}, nil
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = trace.ConfigPath()
	}
	if path == "" {
		return nil, fmt.Errorf("no tag store: set --config, --db, or TRACETAG_CONFIG")
	}
	return &store{src: source.NewFile(path), close: func() error { return nil }}, nil
}

// NewInitCommand creates the 'init' subcommand
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default tag set to the store",
		Long: `Write the built-in default tag set to the selected store,
replacing its current contents.`,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.close()

	var entries []source.Entry
	for _, tg := range tag.Defaults() {
		entries = append(entries, source.Entry{Name: tg.Name(), Value: int(tg.Value())})
	}
	if err := st.src.Persist(cmd.Context(), entries); err != nil {
		return fmt.Errorf("write defaults: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d default tags\n", len(entries))
	return nil
}

// NewListCommand creates the 'list' subcommand
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored tags",
		Long: `List the tags currently in the store, in store order.

Use --pattern to filter names with a glob (e.g. 'Net.**').`,
		RunE: runList,
	}
	cmd.Flags().String("pattern", "", "Glob pattern to filter tag names")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.close()

	entries, err := st.src.LoadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("read tag store: %w", err)
	}

	if pattern, _ := cmd.Flags().GetString("pattern"); pattern != "" {
		filtered := entries[:0]
		for _, e := range entries {
			ok, err := doublestar.Match(pattern, e.Name)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if ok {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", e.Name, valueLabel(e.Value))
	}
	return nil
}

// NewGetCommand creates the 'get' subcommand
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show one stored tag",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.close()

	entry, err := loadOne(cmd.Context(), st.src, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", entry.Name, valueLabel(entry.Value))
	return nil
}

// NewSetCommand creates the 'set' subcommand
func NewSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Set a tag's value in the store",
		Long: `Set a tag's value. VALUE is disabled, enabled, or break (or 0/1/2).
A name ending in '*' creates a wildcard tag gating every category with
that prefix.`,
		Args: cobra.ExactArgs(2),
		RunE: runSet,
	}
}

func runSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	value, err := tag.ParseValue(args[1])
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.close()

	ctx := cmd.Context()
	if db, ok := st.src.(*source.SQLite); ok {
		if err := db.Set(ctx, name, int(value)); err != nil {
			return fmt.Errorf("set tag: %w", err)
		}
	} else if err := setInPlace(ctx, st.src, name, int(value)); err != nil {
		return fmt.Errorf("set tag: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", name, value)
	return nil
}

// NewResolveCommand creates the 'resolve' subcommand
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve NAME",
		Short: "Show a name's effective state",
		Long: `Resolve NAME the way an instrumented process would: defaults merged
with the store, exact match first, then longest wildcard prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: runResolve,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.close()

	engine := trace.New(
		trace.WithSource(st.src),
		trace.WithSink(trace.SinkFunc(func(string) {})),
		trace.WithBreaker(trace.NoopBreaker()),
	)
	defer engine.Shutdown()

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", engine.Resolve(args[0]))
	return nil
}

// loadOne uses the store's single-entry read when available and scans
// otherwise.
func loadOne(ctx context.Context, src source.Source, name string) (source.Entry, error) {
	if loader, ok := src.(source.Loader); ok {
		entry, err := loader.Load(ctx, name)
		if err != nil {
			return source.Entry{}, fmt.Errorf("tag %q: %w", name, err)
		}
		return entry, nil
	}

	entries, err := src.LoadAll(ctx)
	if err != nil {
		return source.Entry{}, fmt.Errorf("read tag store: %w", err)
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return source.Entry{}, fmt.Errorf("tag %q: %w", name, source.ErrNotFound)
}

// setInPlace rewrites a whole-document store with one entry changed,
// preserving entry order. A missing or unreadable store counts as
// empty: set creates it.
func setInPlace(ctx context.Context, src source.Source, name string, value int) error {
	entries, err := src.LoadAll(ctx)
	if err != nil {
		entries = nil
	}

	found := false
	for i, e := range entries {
		if strings.EqualFold(e.Name, name) {
			entries[i].Value = value
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, source.Entry{Name: name, Value: value})
	}
	return src.Persist(ctx, entries)
}

func valueLabel(raw int) string {
	v := tag.Value(raw)
	if !v.Valid() {
		return fmt.Sprintf("invalid(%d)", raw)
	}
	return v.String()
}
