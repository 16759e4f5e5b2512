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

//go:build unix

package trace

import (
	"os"
	"syscall"
)

// DefaultBreaker raises SIGTRAP against the current process, which
// stops it under an attached debugger and is otherwise fatal-by-default.
// Deployments without a debugger should configure NoopBreaker instead.
func DefaultBreaker() BreakRequester {
	return BreakFunc(func() {
		_ = syscall.Kill(os.Getpid(), syscall.SIGTRAP)
	})
}
