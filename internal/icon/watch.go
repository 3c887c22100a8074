// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package icon

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/base/logger"

	"github.com/fsnotify/fsnotify"
)

var watchReadyHook func() // used in tests, called when Watch started watching for changes

// Watch performs an initial generation and then regenerates the icon
// set whenever the source file changes. It returns when ctx is
// canceled.
func Watch(ctx context.Context, c *Config) error {
	if err := c.setDefaults(); err != nil {
		return err
	}

	if err := Generate(ctx, c); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file itself: editors often save by
	// writing a new file and renaming it over the old one, which would
	// invalidate a watch on the file.
	if err := watcher.Add(filepath.Dir(c.Src)); err != nil {
		return err
	}

	regen := func() {
		logger.Info(ctx, "source changed, regenerating", slog.String("src", c.Src))
		if err := Generate(ctx, c); err != nil {
			logger.Error(ctx, "failed to regenerate icons", slog.Any("err", err))
		}
	}
	// It's better to have a bit of delay, so that we don't regenerate
	// the icons on every partial write an editor makes.
	debouncer := newDebouncer(250*time.Millisecond, regen)

	logger.Info(ctx, "started watching for changes", slog.String("src", c.Src))

	if watchReadyHook != nil {
		watchReadyHook()
	}

	for {
		select {
		case event := <-watcher.Events:
			if !shouldRegenerate(c.Src, event) {
				continue
			}
			logger.Info(ctx, "detected change, scheduling regeneration",
				slog.String("name", event.Name),
				slog.Any("op", event.Op),
			)
			debouncer.Do()
		case err := <-watcher.Errors:
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

func shouldRegenerate(src string, event fsnotify.Event) bool {
	base := filepath.Base(event.Name)

	// Mac OS' worst mistake.
	if base == ".DS_Store" {
		return false
	}

	// Vim creates this temporary file to see whether it can write into a
	// target directory, so ignore it.
	if base == "4913" {
		return false
	}

	// Same for files that look like Vim backups.
	if strings.HasSuffix(base, "~") {
		return false
	}

	// Only the watched source matters; the directory may also receive
	// our own outputs.
	if base != filepath.Base(src) {
		return false
	}

	// Rename covers editors that save by replacing the file.
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

// debouncer delays execution of a function until a specified duration
// has passed without any new events.
type debouncer struct {
	d  time.Duration
	mu sync.Mutex
	f  func()
	t  *time.Timer
}

// newDebouncer creates a new debouncer.
func newDebouncer(d time.Duration, f func()) *debouncer {
	return &debouncer{
		d: d,
		f: f,
	}
}

// Do schedules a function to be executed.
func (d *debouncer) Do() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}

	d.t = time.AfterFunc(d.d, d.f)
}
