package i18n

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core"
)

// Watch loads the catalogs found in dir, then reloads them whenever one of its JSON files changes,
// until ctx is done.
func (c *Catalog) Watch(ctx context.Context, dir string, logger core.Logger) error {
	if err := c.LoadDir(dir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating locales watcher")
	}
	if err = watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return errors.Wrapf(err, "watching %s", dir)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := c.LoadDir(dir); err != nil {
					logger.Error("i18n: reloading locales", err)
					continue
				}
				logger.Info("i18n: locales reloaded from " + event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("i18n: watcher error", err)
			}
		}
	}()
	return nil
}
