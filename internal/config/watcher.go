// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/flowlight-io/telemetry/internal/pipeline"
)

// Watcher reloads a pipeline definition when its file changes and rebuilds
// the shared processor chain on the live configuration. Rebuilds happen on
// the watcher goroutine only, so the single-writer rule for the chain slot
// holds; Track callers keep reading the old chain until the new one lands.
//
// Only processors and async options are rebuilt. Sink changes require a
// restart, since channels own running goroutines and buffered items.
type Watcher struct {
	path    string
	reg     *Registry
	cfg     *pipeline.Configuration
	watcher *fsnotify.Watcher
	logger  logr.Logger

	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	reloads uint64
}

// NewWatcher starts watching the definition file's directory. Watching the
// directory instead of the file itself survives the rename-and-replace
// strategy most editors and config writers use.
func NewWatcher(path string, reg *Registry, cfg *pipeline.Configuration, logger logr.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error(closeErr, "failed to close fs watcher")
		}
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		path:    path,
		reg:     reg,
		cfg:     cfg,
		watcher: fw,
		logger:  logger.WithName("config-watcher"),
		done:    make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// Reloads returns how many successful rebuilds the watcher has performed.
func (w *Watcher) Reloads() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Close stops watching. It is safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isConfigEvent(event) {
				continue
			}
			if err := w.reload(); err != nil {
				// Keep serving the previously installed chain.
				w.logger.Error(err, "Config reload failed, keeping current chain")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) isConfigEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create)
}

func (w *Watcher) reload() error {
	f, err := Load(w.path)
	if err != nil {
		return err
	}
	if err := buildChain(f, w.reg, w.cfg); err != nil {
		return err
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()

	w.logger.Info("Pipeline chain rebuilt from config",
		"processors", len(f.Processors), "async", f.Async != nil)
	return nil
}
