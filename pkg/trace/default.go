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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tombee/tracetag/internal/log"
	"github.com/tombee/tracetag/pkg/source"
	"github.com/tombee/tracetag/pkg/watch"
)

var (
	defaultEngine *Engine
	defaultOnce   sync.Once
)

// ConfigPath returns the tag file used by the default engine: the
// TRACETAG_CONFIG environment variable when set, otherwise
// tracetag/tags.yaml under the user config directory.
func ConfigPath() string {
	if path := os.Getenv("TRACETAG_CONFIG"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tracetag", "tags.yaml")
}

// Default returns the process-wide engine, wired to the YAML tag file
// at ConfigPath with live file watching. Built on first call.
func Default() *Engine {
	defaultOnce.Do(func() {
		logger := log.New(log.FromEnv())
		opts := []Option{WithLogger(logger)}
		if path := ConfigPath(); path != "" {
			opts = append(opts,
				WithSource(source.NewFile(path)),
				WithNotifier(watch.NewFileNotifier(path, logger)),
			)
		}
		defaultEngine = New(opts...)
	})
	return defaultEngine
}

// Trace emits a formatted message under tagName via the default engine.
func Trace(tagName, format string, args ...any) {
	Default().Trace(tagName, format, args...)
}

// TraceBare emits a message without the line prefix via the default
// engine.
func TraceBare(tagName, format string, args ...any) {
	Default().TraceBare(tagName, format, args...)
}

// TraceErr emits msg with err's description via the default engine.
func TraceErr(tagName, msg string, err error) {
	Default().TraceErr(tagName, msg, err)
}

// Assert checks cond via the default engine.
func Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	Default().failAssertion(2, fmt.Sprintf(format, args...))
}

// IsTagEnabled reports whether tagName is enabled in the default engine.
func IsTagEnabled(tagName string) bool {
	return Default().IsTagEnabled(tagName)
}

// IsTagPresent reports whether tagName exists in the default engine's
// table.
func IsTagPresent(tagName string) bool {
	return Default().IsTagPresent(tagName)
}

// Dump emits v's description via the default engine.
func Dump(tagName string, v Describable) {
	Default().Dump(tagName, v)
}

// Validate runs v's validation via the default engine.
func Validate(tagName string, v Validatable) {
	Default().Validate(tagName, v)
}

// AlwaysValidate registers tagName in the default engine's
// always-validate set.
func AlwaysValidate(tagName string) {
	Default().AlwaysValidate(tagName)
}

// Shutdown stops the default engine's change watcher.
func Shutdown() {
	Default().Shutdown()
}
