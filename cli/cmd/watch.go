package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/interp/log"
)

// defaultDebounce is how long file events must settle before reacting.
const defaultDebounce = 100 * time.Millisecond

// debouncer calls fn once events stop arriving for delay. Calls run one at a
// time on a single worker; while one is running at most one more is queued.
type debouncer struct {
	delay   time.Duration
	fn      func(name string)
	pending chan string
	wg      sync.WaitGroup

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func newDebouncer(delay time.Duration, fn func(name string)) *debouncer {
	d := &debouncer{delay: delay, fn: fn, pending: make(chan string, 1)}
	d.wg.Go(d.run)

	return d
}

func (d *debouncer) run() {
	for name := range d.pending {
		d.fn(name)
	}
}

// trigger restarts the delay. When it elapses, name is queued for the worker.
func (d *debouncer) trigger(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.closed {
			return
		}

		select {
		case d.pending <- name:
		default:
		}
	})
}

// close drops any waiting timer and returns after queued calls finish.
func (d *debouncer) close() {
	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()

		return
	}

	d.closed = true

	if d.timer != nil {
		d.timer.Stop()
	}

	close(d.pending)
	d.mu.Unlock()

	d.wg.Wait()
}

// watchFiles calls onChange each time one of paths is written, created, or
// renamed, until ctx is done. Bursts of events within debounce collapse into
// one call, and calls never overlap. Parent directories are watched so that editors which replace
// files are handled.
func watchFiles(
	ctx context.Context,
	logger log.Logger,
	paths []string,
	debounce time.Duration,
	onChange func() error,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}
	defer watcher.Close()

	targets := make(map[string]struct{}, len(paths))
	dirs := make([]string, 0, len(paths))

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return ErrWatch.Wrap(err).With(slog.String("path", p))
		}

		targets[abs] = struct{}{}

		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return ErrWatch.Wrap(err).With(slog.String("dir", dir))
		}
	}

	logger.InfoContext(ctx, "watching files",
		slog.Int("files", len(targets)),
		slog.Int64("debounce_ms", debounce.Milliseconds()),
	)

	d := newDebouncer(debounce, func(name string) {
		logger.DebugContext(ctx, "file changed", slog.String("path", name))

		if err := onChange(); err != nil {
			logger.ErrorContext(ctx, "reload failed", slog.Any("error", err))
		}
	})
	defer d.close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) {
				continue
			}

			if _, ok := targets[filepath.Clean(event.Name)]; ok {
				d.trigger(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorContext(ctx, "watch error", slog.Any("error", err))
		}
	}
}
