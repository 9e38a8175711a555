package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/forPelevin/vidsub/internal/usecase"
)

// Handler processes one video file from the inbox.
type Handler func(ctx context.Context, path string) error

type Options struct {
	Inbox   string
	Handler Handler
	Logger  hclog.Logger
	// Settle is the wait between a create event and processing, so the file
	// is fully written. Defaults to 500ms.
	Settle time.Duration
}

// Watcher runs the handler for every video that appears in the inbox, one
// file at a time.
type Watcher struct {
	inbox   string
	handler Handler
	log     hclog.Logger
	settle  time.Duration
	fs      *fsnotify.Watcher
	seen    map[string]struct{}
}

func New(o Options) (*Watcher, error) {
	if o.Handler == nil {
		return nil, errors.New("watcher handler is required")
	}
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	if o.Settle <= 0 {
		o.Settle = 500 * time.Millisecond
	}
	if err := os.MkdirAll(o.Inbox, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(o.Inbox); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &Watcher{
		inbox:   o.Inbox,
		handler: o.Handler,
		log:     o.Logger,
		settle:  o.Settle,
		fs:      fw,
		seen:    make(map[string]struct{}),
	}, nil
}

// Start processes videos already in the inbox, then blocks handling new ones
// until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info("watching inbox", "dir", w.inbox)

	existing, err := w.existing()
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.handle(ctx, path)
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !usecase.IsVideoFile(ev.Name) {
				w.log.Debug("ignoring non-video file", "path", ev.Name)
				continue
			}
			select {
			case <-time.After(w.settle):
			case <-ctx.Done():
				return ctx.Err()
			}
			w.handle(ctx, ev.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) Stop() error {
	return w.fs.Close()
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if _, ok := w.seen[path]; ok {
		return
	}
	w.seen[path] = struct{}{}

	w.log.Info("new video", "path", path)
	start := time.Now()
	if err := w.handler(ctx, path); err != nil {
		w.log.Error("processing failed", "path", path, "error", err)
		return
	}
	w.log.Info("processed", "path", path, "duration", time.Since(start).String())
}

func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !usecase.IsVideoFile(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(w.inbox, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
