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

package watch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// State is the watcher lifecycle state.
type State int32

const (
	// StateStopped means monitoring is not running. Once a running
	// watcher returns to this state it never restarts.
	StateStopped State = iota
	// StateWatching means the background loop is armed and waiting for
	// change signals.
	StateWatching
)

// Watcher runs the background reload loop: it blocks on change signals
// from a Notifier and invokes the reload callback for each one.
//
// Failure policy: a failure to arm the watch, or a failure of an armed
// subscription, stops monitoring for the rest of the process lifetime.
// There is no retry; callers keep resolving against the last published
// table. Reloads are paced by a rate limiter so a burst of filesystem
// events for one logical change produces one reload (signals arriving
// during a reload coalesce in the subscription's buffer, so the last
// change of a burst is never lost).
type Watcher struct {
	notifier Notifier
	reload   func(context.Context)
	logger   *slog.Logger
	limiter  *rate.Limiter

	sub      Subscription
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	state    atomic.Int32
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithMinReloadInterval sets the minimum spacing between reloads.
// Zero disables pacing.
func WithMinReloadInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			w.limiter = nil
		}
	}
}

// defaultMinReloadInterval spaces reloads far enough apart to coalesce
// the multi-event bursts editors and atomic writes produce.
const defaultMinReloadInterval = 100 * time.Millisecond

// New creates a watcher that calls reload on every change signal from
// notifier. The watcher is created in StateStopped; call Start.
func New(notifier Notifier, reload func(context.Context), opts ...Option) *Watcher {
	w := &Watcher{
		notifier: notifier,
		reload:   reload,
		logger:   slog.Default(),
		limiter:  rate.NewLimiter(rate.Every(defaultMinReloadInterval), 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(slog.String("component", "tagwatcher"))
	return w
}

// Start arms the watch and launches the background loop. On failure the
// watcher stays in StateStopped and will not be retried.
func (w *Watcher) Start(ctx context.Context) error {
	sub, err := w.notifier.Watch()
	if err != nil {
		recordFailure("open")
		w.logger.Warn("failed to arm configuration watch, monitoring disabled", "error", err)
		return err
	}

	w.sub = sub
	w.started = true
	w.state.Store(int32(StateWatching))
	watcherActive.Set(1)
	go w.loop(ctx)

	w.logger.Debug("configuration watcher started")
	return nil
}

// Stop terminates the loop and releases the subscription. Safe to call
// multiple times, and safe when Start failed or was never called.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.sub != nil {
		w.sub.Close()
	}
	if w.started {
		<-w.doneCh
	}
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	defer watcherActive.Set(0)
	defer w.state.Store(int32(StateStopped))

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("configuration watcher stopped (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Debug("configuration watcher stopped")
			return
		case _, ok := <-w.sub.Changes():
			if !ok {
				recordFailure("signal")
				w.logger.Warn("configuration watch lost, monitoring ends for this process")
				return
			}
			if w.limiter != nil {
				if err := w.limiter.Wait(ctx); err != nil {
					return
				}
			}
			w.reload(ctx)
			recordReload()
			w.logger.Debug("configuration reloaded")
		}
	}
}
