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

// Well-known tag names. These seed every table build; external
// configuration may override their values but not their table position.
const (
	// CatchAll matches any name with no more specific tag. Disabled by
	// default so unknown categories stay quiet.
	CatchAll = "*"
	// General is the default category for uncategorized messages.
	General = "General"
	// External is the category for messages relayed from outside
	// components.
	External = "External"
	// Assert is the category for assertion failures. Defaults to Break.
	Assert = "Assert"
	// Dump gates object dumps.
	Dump = "Dump"
	// Validate gates object validation.
	Validate = "Validate"
	// Monitor governs whether configuration-change monitoring runs at
	// all. Read once from the first loaded table.
	Monitor = "Monitor"
	// Prefix governs whether trace lines carry a process-id prefix.
	Prefix = "Prefix"
	// ThreadID extends the prefix with the calling goroutine's id.
	ThreadID = "ThreadID"
)

// Defaults returns the fixed default tag set, in table order. The result
// is a fresh slice on every call; callers may modify it freely.
func Defaults() []Tag {
	return []Tag{
		New(CatchAll, Disabled),
		New(General, Enabled),
		New(External, Enabled),
		New(Assert, Break),
		New(Dump, Enabled),
		New(Validate, Disabled),
		New(Monitor, Enabled),
		New(Prefix, Enabled),
		New(ThreadID, Disabled),
	}
}
