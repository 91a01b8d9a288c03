package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sirseer/relay-exporter/internal/logfields"
	"github.com/sirseer/relay-exporter/internal/metadata"
)

// DirWatcher monitors the metadata directory and triggers an early
// collection cycle when records change, instead of waiting for the next
// scheduled tick. Rapid bursts of writes collapse into one trigger.
type DirWatcher struct {
	dir          string
	trigger      func()
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	rescanChan   chan struct{}
	debounceTime time.Duration
}

// NewDirWatcher creates a watcher over the metadata directory.
func NewDirWatcher(dir string, trigger func()) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolve metadata directory: %w", err)
	}
	return &DirWatcher{
		dir:          absDir,
		trigger:      trigger,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		rescanChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring. The watcher goroutines exit when ctx is
// cancelled or Stop is called.
func (dw *DirWatcher) Start(ctx context.Context) error {
	if err := dw.watcher.Add(dw.dir); err != nil {
		return fmt.Errorf("watch metadata directory %s: %w", dw.dir, err)
	}
	slog.Info("Watching metadata directory for changes", logfields.Dir(dw.dir))

	go dw.watchLoop(ctx)
	go dw.rescanLoop(ctx)
	return nil
}

// Stop stops the watcher.
func (dw *DirWatcher) Stop() {
	close(dw.stopChan)
	if err := dw.watcher.Close(); err != nil {
		slog.Error("Error closing file watcher", logfields.Error(err))
	}
}

// watchLoop funnels relevant file events into the debounced rescan channel.
func (dw *DirWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopChan:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			// Only metadata records matter; ignore output files and
			// temp files written alongside them.
			if !strings.HasSuffix(filepath.Base(event.Name), metadata.FileSuffix) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case dw.rescanChan <- struct{}{}:
			default: // a rescan is already pending
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// rescanLoop debounces rescan requests and fires the trigger.
func (dw *DirWatcher) rescanLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopChan:
			return
		case <-dw.rescanChan:
			timer := time.NewTimer(dw.debounceTime)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-dw.stopChan:
				timer.Stop()
				return
			case <-timer.C:
				slog.Debug("Metadata change detected, rescanning", logfields.Dir(dw.dir))
				dw.trigger()
			}
		}
	}
}
