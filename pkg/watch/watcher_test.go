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
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeNotifier hands out a manually driven subscription.
type fakeNotifier struct {
	sub     *fakeSub
	openErr error
}

func (n *fakeNotifier) Watch() (Subscription, error) {
	if n.openErr != nil {
		return nil, n.openErr
	}
	return n.sub, nil
}

type fakeSub struct {
	ch     chan struct{}
	closed atomic.Bool
}

func newFakeSub() *fakeSub {
	return &fakeSub{ch: make(chan struct{}, 1)}
}

func (s *fakeSub) Changes() <-chan struct{} { return s.ch }

func (s *fakeSub) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
	return nil
}

func (s *fakeSub) fire() { signal(s.ch) }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcher_ReloadsOnSignal(t *testing.T) {
	sub := newFakeSub()
	var reloads atomic.Int64
	w := New(&fakeNotifier{sub: sub},
		func(context.Context) { reloads.Add(1) },
		WithMinReloadInterval(0))
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := w.State(); got != StateWatching {
		t.Fatalf("State() = %v, want StateWatching", got)
	}

	sub.fire()
	waitFor(t, time.Second, func() bool { return reloads.Load() == 1 })

	sub.fire()
	waitFor(t, time.Second, func() bool { return reloads.Load() == 2 })
}

func TestWatcher_OpenFailureStaysStopped(t *testing.T) {
	w := New(&fakeNotifier{openErr: errors.New("watch unavailable")},
		func(context.Context) { t.Error("reload must never run") })
	defer w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want error")
	}
	if got := w.State(); got != StateStopped {
		t.Fatalf("State() = %v, want StateStopped", got)
	}
}

func TestWatcher_SubscriptionFailureIsPermanent(t *testing.T) {
	sub := newFakeSub()
	var reloads atomic.Int64
	w := New(&fakeNotifier{sub: sub},
		func(context.Context) { reloads.Add(1) },
		WithMinReloadInterval(0))
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// The watch primitive dies: the signal channel closes.
	sub.Close()
	waitFor(t, time.Second, func() bool { return w.State() == StateStopped })

	if reloads.Load() != 0 {
		t.Errorf("reloads = %d, want 0", reloads.Load())
	}
}

func TestWatcher_StopTerminatesLoop(t *testing.T) {
	sub := newFakeSub()
	w := New(&fakeNotifier{sub: sub}, func(context.Context) {},
		WithMinReloadInterval(0))

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	w.Stop()
	if got := w.State(); got != StateStopped {
		t.Fatalf("State() after Stop = %v, want StateStopped", got)
	}
	// Idempotent.
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w := New(&fakeNotifier{openErr: errors.New("nope")}, func(context.Context) {})
	w.Stop() // must not deadlock or panic
}

func TestWatcher_ContextCancelStops(t *testing.T) {
	sub := newFakeSub()
	w := New(&fakeNotifier{sub: sub}, func(context.Context) {},
		WithMinReloadInterval(0))
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()
	waitFor(t, time.Second, func() bool { return w.State() == StateStopped })
}

func TestWatcher_SignalDuringReloadNotLost(t *testing.T) {
	sub := newFakeSub()
	inReload := make(chan struct{})
	release := make(chan struct{})
	var reloads atomic.Int64

	w := New(&fakeNotifier{sub: sub},
		func(context.Context) {
			if reloads.Add(1) == 1 {
				close(inReload)
				<-release
			}
		},
		WithMinReloadInterval(0))
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	sub.fire()
	<-inReload
	// A change lands while the first reload is still running.
	sub.fire()
	close(release)

	waitFor(t, time.Second, func() bool { return reloads.Load() == 2 })
}
