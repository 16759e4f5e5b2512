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
	"io"
	"sync"
)

// Sink receives composed trace lines. Implementations must tolerate
// concurrent calls.
type Sink interface {
	Write(line string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(line string)

// Write calls f(line).
func (f SinkFunc) Write(line string) { f(line) }

// WriterSink writes each trace line, newline-terminated, to an
// io.Writer. A mutex keeps concurrent lines from interleaving.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w as a Sink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write emits one line. Write errors are dropped: the trace stream is
// best-effort and must never disturb the host application.
func (s *WriterSink) Write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
}
