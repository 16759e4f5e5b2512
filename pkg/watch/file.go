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
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileNotifier signals changes to a single configuration file.
//
// The parent directory is watched rather than the file itself, so that
// rename-based atomic writes (temp file + rename over the target) and
// re-creation after deletion keep being observed.
type FileNotifier struct {
	path   string
	logger *slog.Logger
}

// NewFileNotifier creates a notifier for the file at path.
func NewFileNotifier(path string, logger *slog.Logger) *FileNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileNotifier{
		path:   path,
		logger: logger.With(slog.String("component", "filenotifier")),
	}
}

// Watch arms an fsnotify watch on the file's directory.
func (n *FileNotifier) Watch() (Subscription, error) {
	absPath, err := filepath.Abs(n.path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	sub := &fileSub{
		name:    filepath.Base(absPath),
		watcher: fsw,
		ch:      make(chan struct{}, 1),
		logger:  n.logger.With(slog.String("path", absPath)),
	}
	go sub.loop()

	n.logger.Debug("file watch armed", "path", absPath)
	return sub, nil
}

type fileSub struct {
	name    string
	watcher *fsnotify.Watcher
	ch      chan struct{}
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *fileSub) Changes() <-chan struct{} { return s.ch }

func (s *fileSub) Close() error {
	s.closeOnce.Do(func() {
		// Closing the fsnotify watcher closes its channels, which in
		// turn terminates loop and closes s.ch.
		s.closeErr = s.watcher.Close()
	})
	return s.closeErr
}

// loop converts fsnotify events on the watched file into coalesced
// change signals. Any watch-primitive failure terminates the loop; the
// closed signal channel tells the consumer that monitoring has ended.
func (s *fileSub) loop() {
	defer close(s.ch)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != s.name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				// Chmod is deliberately ignored.
				continue
			}
			s.logger.Debug("configuration file changed", "op", event.Op.String())
			signal(s.ch)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("file watch failed, monitoring ends", "error", err)
			return
		}
	}
}
