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
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/tombee/tracetag/pkg/tag"
)

// Trace emits a formatted message under tagName. Nothing happens when
// the tag resolves to Disabled; a tag at Break additionally requests a
// break after the line is written.
func (e *Engine) Trace(tagName, format string, args ...any) {
	e.trace(tagName, fmt.Sprintf(format, args...), nil)
}

// TraceBare is Trace without the process/thread prefix, regardless of
// the Prefix tag. Useful for continuation lines under a preceding
// prefixed line.
func (e *Engine) TraceBare(tagName, format string, args ...any) {
	e.traceLine(tagName, fmt.Sprintf(format, args...), nil, false)
}

// TraceErr emits msg under tagName with err's description appended as a
// trailing block. A nil err behaves like Trace.
func (e *Engine) TraceErr(tagName, msg string, err error) {
	e.traceLine(tagName, msg, err, true)
}

func (e *Engine) trace(tagName, msg string, err error) {
	e.traceLine(tagName, msg, err, true)
}

func (e *Engine) traceLine(tagName, msg string, err error, includePrefix bool) {
	snap := e.ensureInit()
	value := snap.table.Resolve(tagName)
	if value == tag.Disabled {
		return
	}

	e.emit(snap, tagName, msg, err, includePrefix)

	// The assertion tag has its own break gating in failAssertion.
	if value == tag.Break && !strings.EqualFold(tagName, tag.Assert) {
		e.breaker.RequestBreak()
	}
}

// emit composes and writes one trace line. The prefix and goroutine-id
// decisions come from the snapshot, where they were cached at load time.
func (e *Engine) emit(snap *snapshot, tagName, msg string, err error, includePrefix bool) {
	var b strings.Builder

	if includePrefix && snap.includePrefix {
		if snap.includeGoID {
			fmt.Fprintf(&b, "[%d:%d] ", e.pid, goroutineID())
		} else {
			fmt.Fprintf(&b, "[%d] ", e.pid)
		}
	}
	if !strings.EqualFold(tagName, tag.Assert) {
		b.WriteString(tagName)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	if err != nil {
		b.WriteString("\n\terror: ")
		b.WriteString(err.Error())
	}

	e.sink.Write(b.String())
}

// Assert checks cond and, when false, traces an assertion failure with
// the caller's location and stack, then decides whether to break: an
// always-break engine breaks unconditionally; otherwise a configured
// prompter is consulted; otherwise the Assert tag's own value decides.
// An Assert tag at Disabled suppresses the failure entirely.
func (e *Engine) Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	e.failAssertion(2, fmt.Sprintf(format, args...))
}

// failAssertion is the shared failure path for Assert and for callback
// failures converted by Validate and Dump. skip addresses the frame to
// report, counted as in runtime.Caller.
func (e *Engine) failAssertion(skip int, msg string) {
	snap := e.ensureInit()
	if snap.table.Resolve(tag.Assert) == tag.Disabled {
		return
	}

	location := "unknown"
	if _, file, line, ok := runtime.Caller(skip); ok {
		location = fmt.Sprintf("%s:%d", file, line)
	}
	full := fmt.Sprintf("assertion failed at %s: %s\n%s", location, msg, debug.Stack())

	e.emit(snap, tag.Assert, full, nil, true)

	if e.shouldBreak(snap, full) {
		e.breaker.RequestBreak()
	}
}

// shouldBreak decides whether a failed assertion requests a break.
func (e *Engine) shouldBreak(snap *snapshot, msg string) bool {
	if e.alwaysBreakOnAssert {
		return true
	}
	if e.prompter != nil {
		return e.prompter.Confirm(msg) == DecisionBreak
	}
	return snap.table.Resolve(tag.Assert) == tag.Break
}

// Resolve returns tagName's effective enable state from the current
// snapshot.
func (e *Engine) Resolve(tagName string) tag.Value {
	snap := e.ensureInit()
	return snap.table.Resolve(tagName)
}

// IsTagEnabled reports whether tagName resolves to anything other than
// Disabled, prefix matching included.
func (e *Engine) IsTagEnabled(tagName string) bool {
	snap := e.ensureInit()
	return snap.table.Resolve(tagName) != tag.Disabled
}

// IsTagPresent reports whether a tag with exactly this name exists in
// the current table. Wildcards only count for their literal name.
func (e *Engine) IsTagPresent(tagName string) bool {
	snap := e.ensureInit()
	_, ok := snap.table.FindExact(tagName)
	return ok
}

// Dump emits v's description when dumping applies: under the Dump tag
// when that is enabled, or under tagName when the Dump tag is absent
// from the table entirely and tagName itself is enabled. A panicking
// Describe is converted to an assertion failure.
func (e *Engine) Dump(tagName string, v Describable) {
	snap := e.ensureInit()

	target := ""
	if snap.table.Resolve(tag.Dump) != tag.Disabled {
		target = tag.Dump
	} else if _, present := snap.table.FindExact(tag.Dump); !present {
		if snap.table.Resolve(tagName) != tag.Disabled {
			target = tagName
		}
	}
	if target == "" || v == nil {
		return
	}

	desc, err := safeDescribe(v)
	if err != nil {
		e.failAssertion(2, fmt.Sprintf("describe for tag %q: %v", tagName, err))
		return
	}
	e.emit(snap, target, desc, nil, true)
}

// Validate runs v's validation when validating applies: when the
// Validate tag is enabled, or when it is absent from the table entirely
// and either tagName was registered via AlwaysValidate or tagName
// itself is enabled. A validation error or panic is converted to an
// assertion failure; nothing propagates to the caller.
func (e *Engine) Validate(tagName string, v Validatable) {
	snap := e.ensureInit()

	run := false
	if snap.table.Resolve(tag.Validate) != tag.Disabled {
		run = true
	} else if _, present := snap.table.FindExact(tag.Validate); !present {
		run = e.isAlwaysValidate(tagName) ||
			snap.table.Resolve(tagName) != tag.Disabled
	}
	if !run || v == nil {
		return
	}

	if err := safeValidate(v); err != nil {
		e.failAssertion(2, fmt.Sprintf("validation for tag %q: %v", tagName, err))
	}
}

// AlwaysValidate registers tagName in the process-wide set consulted by
// Validate. The registry is append-only.
func (e *Engine) AlwaysValidate(tagName string) {
	e.alwaysValidate.Store(strings.ToLower(tagName), struct{}{})
}

func (e *Engine) isAlwaysValidate(tagName string) bool {
	_, ok := e.alwaysValidate.Load(strings.ToLower(tagName))
	return ok
}

// safeDescribe invokes the describe capability, converting a panic into
// an error.
func safeDescribe(v Describable) (desc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("describe panicked: %v", r)
		}
	}()
	return v.Describe(), nil
}

// safeValidate invokes the validate capability, converting a panic into
// an error.
func safeValidate(v Validatable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validate panicked: %v", r)
		}
	}()
	return v.Validate()
}

// goroutineID extracts the current goroutine's id from the runtime
// stack header ("goroutine N [...]"). Costly, so only taken when the
// ThreadID tag asks for it.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(string(buf[:n]))
	if len(fields) < 2 {
		return -1
	}
	var id int64
	if _, err := fmt.Sscanf(fields[1], "%d", &id); err != nil {
		return -1
	}
	return id
}
