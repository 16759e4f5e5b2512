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
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tombee/tracetag/internal/log"
	"github.com/tombee/tracetag/pkg/source"
	"github.com/tombee/tracetag/pkg/tag"
	"github.com/tombee/tracetag/pkg/watch"
)

// snapshot is one fully-built tag table plus the per-load cached state
// derived from its governing tags. Published as a unit via an atomic
// pointer swap; never mutated after publish.
type snapshot struct {
	table         *tag.Table
	includePrefix bool
	includeGoID   bool
}

// Engine resolves tag names against the current snapshot and emits
// trace output. All methods are safe for unlimited concurrent callers;
// the first caller performs the one-time initialization (initial table
// load, watcher start) while concurrent first callers block on the same
// lock.
type Engine struct {
	src      source.Source
	notifier watch.Notifier
	sink     Sink
	breaker  BreakRequester
	prompter Prompter
	logger   *slog.Logger
	defaults []tag.Tag

	alwaysBreakOnAssert bool
	pid                 int
	id                  string

	initialized atomic.Bool
	initMu      sync.Mutex
	snap        atomic.Pointer[snapshot]

	watcher  *watch.Watcher
	cancel   context.CancelFunc
	stopOnce sync.Once

	alwaysValidate sync.Map // lowercased tag name -> struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource sets the external store for tag overrides. Without one,
// the engine runs on the compiled-in defaults alone.
func WithSource(src source.Source) Option {
	return func(e *Engine) { e.src = src }
}

// WithNotifier sets the change notifier used to watch the store. When
// nil, configuration is load-once for the process lifetime.
func WithNotifier(n watch.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithSink sets the destination for trace lines. Default: stderr.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithBreaker sets the break action. Default: SIGTRAP on unix, no-op
// elsewhere.
func WithBreaker(b BreakRequester) Option {
	return func(e *Engine) { e.breaker = b }
}

// WithPrompter sets the interactive confirmation collaborator consulted
// after failed assertions.
func WithPrompter(p Prompter) Option {
	return func(e *Engine) { e.prompter = p }
}

// WithLogger sets the engine's operational logger (not the trace sink).
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithDefaults replaces the built-in default tag set.
func WithDefaults(tags []tag.Tag) Option {
	return func(e *Engine) {
		e.defaults = make([]tag.Tag, len(tags))
		copy(e.defaults, tags)
	}
}

// WithAlwaysBreakOnAssert makes every failed assertion request a break,
// bypassing the prompter and the Assert tag's own value.
func WithAlwaysBreakOnAssert() Option {
	return func(e *Engine) { e.alwaysBreakOnAssert = true }
}

// New creates an engine. Initialization is lazy: the first trace,
// assert, dump, validate, or tag query triggers the initial table load
// and, when permitted by the Monitor tag, starts the change watcher.
func New(opts ...Option) *Engine {
	e := &Engine{
		sink:     NewWriterSink(os.Stderr),
		breaker:  DefaultBreaker(),
		logger:   log.New(log.FromEnv()),
		defaults: tag.Defaults(),
		pid:      os.Getpid(),
		id:       uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = log.WithComponent(e.logger, "traceengine")
	return e
}

// ensureInit performs one-time initialization with a double-checked
// atomic flag so the steady-state cost is a single atomic load.
func (e *Engine) ensureInit() *snapshot {
	if !e.initialized.Load() {
		e.initMu.Lock()
		if !e.initialized.Load() {
			e.init()
			e.initialized.Store(true)
		}
		e.initMu.Unlock()
	}
	return e.snap.Load()
}

// init loads the first table synchronously, persists computed defaults
// if the store needs them, and starts the watcher. The watcher only
// starts after the first load so the Monitor tag it is governed by
// comes from real configuration.
func (e *Engine) init() {
	ctx := context.Background()
	e.reload(ctx)

	e.logger.Debug("trace engine ready",
		"instance_id", e.id,
		"tags", e.snap.Load().table.Len(),
		"monitoring", e.notifier != nil)

	if e.notifier == nil {
		return
	}
	if e.snap.Load().table.Resolve(tag.Monitor) == tag.Disabled {
		e.logger.Debug("monitoring disabled by tag, configuration is load-once")
		return
	}

	ctx, e.cancel = context.WithCancel(context.Background())
	e.watcher = watch.New(e.notifier, e.reload, watch.WithLogger(e.logger))
	// A start failure leaves the watcher permanently stopped; trace
	// calls keep resolving against the table just loaded.
	_ = e.watcher.Start(ctx)
}

// reload builds and publishes a fresh snapshot. Also the watcher's
// reload callback.
func (e *Engine) reload(ctx context.Context) {
	table, needsPersist := buildTable(ctx, e.defaults, e.src, e.logger)

	e.snap.Store(&snapshot{
		table:         table,
		includePrefix: table.Resolve(tag.Prefix) != tag.Disabled,
		includeGoID:   table.Resolve(tag.ThreadID) != tag.Disabled,
	})

	if needsPersist && e.src != nil {
		if err := e.src.Persist(ctx, entriesFor(table)); err != nil {
			e.logger.Debug("failed to persist tag defaults", log.Error(err))
		}
	}
}

// Shutdown stops the change watcher. The engine remains usable and
// keeps resolving against the last published snapshot. Safe to call
// multiple times, before initialization, or if the watcher never
// started.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		e.initMu.Lock()
		defer e.initMu.Unlock()
		if e.cancel != nil {
			e.cancel()
		}
		if e.watcher != nil {
			e.watcher.Stop()
		}
	})
}

// MonitoringActive reports whether the change watcher is currently
// running. False before first use, when no notifier is configured, when
// the Monitor tag disabled watching, and after a watch failure.
func (e *Engine) MonitoringActive() bool {
	e.initMu.Lock()
	w := e.watcher
	e.initMu.Unlock()
	if w == nil {
		return false
	}
	return w.State() == watch.StateWatching
}
