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

// Package watch detects external configuration changes and drives the
// reload loop that republishes the live tag table.
package watch

// Subscription delivers change signals from an armed watch.
//
// Signals are coalesced: the channel has a buffer of one, so any number
// of changes arriving while a reload is in flight collapse into a single
// pending signal and are never lost. The channel is closed when the
// underlying watch primitive fails; that failure is permanent for the
// subscription.
type Subscription interface {
	// Changes returns the signal channel.
	Changes() <-chan struct{}

	// Close releases the watch and closes the signal channel. Safe to
	// call more than once and safe to call concurrently with Changes
	// receives.
	Close() error
}

// Notifier opens a watch on an external configuration store.
type Notifier interface {
	// Watch arms the change notification. An error here means
	// monitoring is unavailable; callers do not retry.
	Watch() (Subscription, error)
}

// signal performs a coalescing non-blocking send on a 1-buffered channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
