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
	"sync"
	"testing"
	"time"
)

type fakeVersioner struct {
	mu      sync.Mutex
	version string
	err     error
}

func (v *fakeVersioner) Version(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version, v.err
}

func (v *fakeVersioner) set(version string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.version, v.err = version, err
}

func TestPollNotifier_SignalsOnVersionChange(t *testing.T) {
	v := &fakeVersioner{version: "1"}
	sub, err := NewPollNotifier(v, 10*time.Millisecond, nil).Watch()
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer sub.Close()

	v.set("2", nil)
	expectSignal(t, sub, 2*time.Second)
}

func TestPollNotifier_NoSignalWhenUnchanged(t *testing.T) {
	v := &fakeVersioner{version: "1"}
	sub, err := NewPollNotifier(v, 10*time.Millisecond, nil).Watch()
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer sub.Close()

	select {
	case <-sub.Changes():
		t.Fatal("signal without a version change")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPollNotifier_InitialReadFailureFailsWatch(t *testing.T) {
	v := &fakeVersioner{err: errors.New("store gone")}
	if _, err := NewPollNotifier(v, 10*time.Millisecond, nil).Watch(); err == nil {
		t.Fatal("Watch() error = nil, want error")
	}
}

func TestPollNotifier_PollFailureClosesSubscription(t *testing.T) {
	v := &fakeVersioner{version: "1"}
	sub, err := NewPollNotifier(v, 10*time.Millisecond, nil).Watch()
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer sub.Close()

	v.set("", errors.New("store gone"))

	select {
	case _, ok := <-sub.Changes():
		if ok {
			t.Fatal("got signal, want closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after poll failure")
	}
}
