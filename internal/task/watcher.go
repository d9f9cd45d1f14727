package task

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ScriptChangeCallback receives the full rescanned synthetic task set
// whenever matching files appear or disappear in the scripts directory.
type ScriptChangeCallback func(descs []Descriptor)

// ScriptWatcher monitors the scripts directory for new or removed scripts
type ScriptWatcher struct {
	watcher  *fsnotify.Watcher
	opts     ScriptOptions
	callback ScriptChangeCallback
	debounce time.Duration

	timer  *time.Timer
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScriptWatcher creates a watcher over the configured scripts directory
func NewScriptWatcher(opts ScriptOptions, callback ScriptChangeCallback) (*ScriptWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(opts.Dir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &ScriptWatcher{
		watcher:  watcher,
		opts:     opts,
		callback: callback,
		debounce: 500 * time.Millisecond, // Debounce rapid changes
	}, nil
}

// Start begins watching for file changes
func (sw *ScriptWatcher) Start(ctx context.Context) {
	ctx, sw.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-sw.watcher.Events:
				if !ok {
					return
				}
				sw.handleEvent(event)
			case _, ok := <-sw.watcher.Errors:
				if !ok {
					return
				}
				// Keep watching through transient errors
			}
		}
	}()
}

// Stop stops watching for file changes
func (sw *ScriptWatcher) Stop() {
	if sw.cancel != nil {
		sw.cancel()
	}
	sw.watcher.Close()
}

// SetDebounce sets the debounce duration for batching file changes
func (sw *ScriptWatcher) SetDebounce(d time.Duration) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.debounce = d
}

func (sw *ScriptWatcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, sw.opts.Extension) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounce, sw.flush)
}

func (sw *ScriptWatcher) flush() {
	if sw.callback == nil {
		return
	}
	descs, err := ScanScripts(sw.opts)
	if err != nil {
		return
	}
	sw.callback(descs)
}
