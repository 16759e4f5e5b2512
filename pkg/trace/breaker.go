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

// BreakRequester performs the platform-specific action when a tag or a
// failed assertion asks for a break: trap into an attached debugger,
// raise a signal, or nothing at all in headless deployments.
type BreakRequester interface {
	RequestBreak()
}

// BreakFunc adapts a function to the BreakRequester interface.
type BreakFunc func()

// RequestBreak calls f.
func (f BreakFunc) RequestBreak() { f() }

// NoopBreaker ignores break requests.
func NoopBreaker() BreakRequester {
	return BreakFunc(func() {})
}

// Decision is a Prompter's verdict on a failed assertion.
type Decision int

const (
	// DecisionContinue resumes execution.
	DecisionContinue Decision = iota
	// DecisionBreak requests a break via the engine's BreakRequester.
	DecisionBreak
	// DecisionAbort leaves termination to the prompter itself; the
	// engine takes no further action.
	DecisionAbort
)

// Prompter is consulted after a failed assertion when the engine is not
// configured to always break. Implementations may block for interactive
// confirmation; the engine only acts on DecisionBreak.
type Prompter interface {
	Confirm(message string) Decision
}
