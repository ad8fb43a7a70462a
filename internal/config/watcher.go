package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the config file when it changes on disk and hands the
// fresh Config to the registered callback. Editors often replace files
// via rename, so the parent directory is watched rather than the file.
type Watcher struct {
	log      zerolog.Logger
	path     string
	onReload func(*Config)
}

// NewWatcher builds a watcher for the given config path. The callback
// runs on the watcher goroutine; keep it quick.
func NewWatcher(log zerolog.Logger, path string, onReload func(*Config)) *Watcher {
	return &Watcher{log: log, path: path, onReload: onReload}
}

// Run blocks until the context is canceled, reloading on every write or
// rename that touches the config file. Reload failures are logged and
// skipped; the previous config stays in effect.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Warn().Err(err).Msg("config reload failed, keeping previous config")
				continue
			}
			w.log.Info().Strs("products", cfg.Exchange.Products).Msg("config reloaded")
			w.onReload(cfg)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
