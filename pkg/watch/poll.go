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
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Versioner exposes a cheap, monotonic-on-change version of a store.
// The SQLite tag store implements this with its generation counter.
type Versioner interface {
	Version(ctx context.Context) (string, error)
}

// DefaultPollInterval is the poll cadence when none is configured.
const DefaultPollInterval = 2 * time.Second

// PollNotifier signals changes by polling a Versioner at a fixed
// interval. It serves stores with no native change notification, such
// as a SQLite database written by another process.
type PollNotifier struct {
	versioner Versioner
	interval  time.Duration
	logger    *slog.Logger
}

// NewPollNotifier creates a poll-based notifier. A non-positive
// interval falls back to DefaultPollInterval.
func NewPollNotifier(v Versioner, interval time.Duration, logger *slog.Logger) *PollNotifier {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PollNotifier{
		versioner: v,
		interval:  interval,
		logger:    logger.With(slog.String("component", "pollnotifier")),
	}
}

// Watch reads the initial version and starts the poll loop. Failure to
// read the initial version is a watch-open failure: no subscription is
// returned and callers do not retry.
func (n *PollNotifier) Watch() (Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), n.interval)
	last, err := n.versioner.Version(ctx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to read initial version: %w", err)
	}

	sub := &pollSub{
		ch:   make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go n.loop(sub, last)
	return sub, nil
}

// loop polls until stopped or the first version-read failure. A read
// failure ends monitoring permanently, matching the semantics of a
// broken native watch handle.
func (n *PollNotifier) loop(sub *pollSub, last string) {
	defer close(sub.ch)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), n.interval)
			cur, err := n.versioner.Version(ctx)
			cancel()
			if err != nil {
				n.logger.Warn("version poll failed, monitoring ends", "error", err)
				return
			}
			if cur != last {
				last = cur
				signal(sub.ch)
			}
		}
	}
}

type pollSub struct {
	ch       chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func (s *pollSub) Changes() <-chan struct{} { return s.ch }

func (s *pollSub) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
