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

// Package cli assembles the tracetag command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/tracetag/internal/commands/tags"
)

// NewRootCommand creates the root Cobra command for tracetag
func NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracetag",
		Short: "tracetag - manage runtime trace tag configuration",
		Long: `tracetag manages the external tag store consulted by processes
instrumented with the tracetag engine. Tags gate diagnostic output by
category; flipping a tag here takes effect in running processes without
a restart.

The store is a YAML file (default: the engine's config path, or
TRACETAG_CONFIG) or a SQLite database selected with --db.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
		Version:       version,
	}

	cmd.PersistentFlags().String("config", "", "Path to the YAML tag file (default: TRACETAG_CONFIG or the user config dir)")
	cmd.PersistentFlags().String("db", "", "Path to a SQLite tag database (takes precedence over --config)")

	cmd.AddCommand(tags.NewInitCommand())
	cmd.AddCommand(tags.NewListCommand())
	cmd.AddCommand(tags.NewGetCommand())
	cmd.AddCommand(tags.NewSetCommand())
	cmd.AddCommand(tags.NewResolveCommand())

	return cmd
}
