// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/fsnotify/fsnotify"
)

// settle is how long the config file must stay unchanged before it is
// reloaded. Editors often write a file in several steps.
const settle = 200 * time.Millisecond

// watchConfig calls reload with the new configuration each time the file at
// path changes, until ctx is stopped. Files that fail to load are logged and
// ignored.
func watchConfig(ctx context.Context, path string, reload func(*Config) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Watch the directory so that files replaced by rename are still seen.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	name := filepath.Clean(path)

	var timer <-chan time.Time
	for {
		select {
		case <-task.ShouldStop(ctx):
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.W(ctx, "Watching %v: %v", path, err)
		case <-timer:
			timer = nil
			cfg, err := loadConfig(path)
			if err != nil {
				log.E(ctx, "Ignoring changed configuration: %v", err)
				continue
			}
			log.I(ctx, "Configuration %v changed, re-syncing", path)
			if err := reload(cfg); err != nil {
				log.E(ctx, "Re-sync failed: %v", err)
			}
		}
	}
}
