// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/fsnotify/fsnotify"
)

const namedLogger = "cfgwatcher"

// Watcher reloads the configuration file when it changes on disk and
// hands the new configuration to the listeners. A file that does not
// decode or validate is ignored and the last good configuration stays.
type Watcher struct {
	log  *logging.Logger
	cfg  Config
	path string

	cfgUpdateListeners []func(Config)
	mu                 sync.Mutex
}

// NewWatcher loads the configuration of rootPath and watches it until ctx
// is done.
func NewWatcher(ctx context.Context, log *logging.Logger, rootPath string) (*Watcher, error) {
	watcherlog := log.Named(namedLogger)
	// set this logger to debug level as we want to be notified for any configuration changes at any time
	watcherlog.SetLevel(logging.DebugLevel)
	w := &Watcher{
		log:                watcherlog,
		cfg:                NewDefaultConfig(rootPath),
		path:               filepath.Join(rootPath, configFileName),
		cfgUpdateListeners: []func(Config){},
	}

	if err := w.load(); err != nil {
		return nil, err
	}
	if err := w.watch(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Get() Config {
	w.mu.Lock()
	conf := w.cfg
	w.mu.Unlock()
	return conf
}

// OnConfigUpdate registers functions called with every reloaded
// configuration.
func (w *Watcher) OnConfigUpdate(fns ...func(Config)) {
	w.mu.Lock()
	w.cfgUpdateListeners = append(w.cfgUpdateListeners, fns...)
	w.mu.Unlock()
}

func (w *Watcher) notifyCfgUpdate() {
	w.mu.Lock()
	cfg := w.cfg
	listeners := append([]func(Config){}, w.cfgUpdateListeners...)
	w.mu.Unlock()
	for _, f := range listeners {
		f(cfg)
	}
}

func (w *Watcher) load() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	cfg := w.cfg
	if err := decodeFile(w.path, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	w.cfg = cfg
	return nil
}

func (w *Watcher) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// the directory is watched so editors replacing the file are seen
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return err
	}
	w.log.Info("config watcher started", logging.String("config", w.path))

	go func(log *logging.Logger) {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if event.Has(fsnotify.Create) {
					// editors write a temporary file and rename it over the
					// original, give them time to finish
					time.Sleep(50 * time.Millisecond)
				}
				log.Info("configuration updated", logging.String("event", event.Name))
				if err := w.load(); err != nil {
					log.Error("unable to load configuration", logging.Error(err))
					continue
				}
				w.notifyCfgUpdate()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("config watcher received error event", logging.Error(err))
			case <-ctx.Done():
				log.Debug("config watcher stopped")
				return
			}
		}
	}(w.log)
	return nil
}
