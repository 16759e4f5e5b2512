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

// Package trace is the instrumentation façade: categorized diagnostic
// messages gated behind named tags whose enable state lives in an
// external, live-reloadable configuration store.
//
// A tag can be Disabled, Enabled, or Break. Names are matched
// case-insensitively; a name ending in "*" gates every category sharing
// its prefix, with the longest prefix winning when several apply. The
// engine initializes itself on first use, loading the tag table from its
// configured source and, if the Monitor tag allows it, watching the
// source for changes so state flips take effect in the running process.
//
// Typical usage with the process-wide default engine:
//
//	trace.Trace("Net.Conn", "dial %s", addr)
//	trace.Assert(n > 0, "expected positive count, got %d", n)
//	defer trace.Shutdown()
//
// Everything here is best-effort diagnostics: configuration problems
// degrade to compiled-in defaults and no error ever propagates into the
// host application's control flow.
package trace
