package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// WatchService re-runs the audit whenever the project tree changes. Bursts
// of filesystem events (editor saves, branch switches) are debounced into
// a single run.
type WatchService struct {
	audit    *AuditService
	logger   *zap.Logger
	debounce time.Duration
}

func NewWatchService(audit *AuditService, logger *zap.Logger) *WatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchService{
		audit:    audit,
		logger:   logger,
		debounce: 500 * time.Millisecond,
	}
}

var watchSkipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".mapaudit":    true,
}

// Run audits once immediately, then again after each settled burst of
// changes, invoking onResult for every completed run. It blocks until the
// context is cancelled.
func (w *WatchService) Run(ctx context.Context, projectRoot string, cfg domain.AuditConfig, onResult func(*domain.AuditResult)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, projectRoot); err != nil {
		return err
	}

	runOnce := func() {
		result, err := w.audit.Audit(ctx, projectRoot, cfg)
		if err != nil {
			w.logger.Error("audit failed", zap.Error(err))
			return
		}
		onResult(result)
	}
	runOnce()

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case pending <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pending:
			runOnce()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignoreEvent(event) {
				continue
			}
			// New directories need their own watch before events fire in them.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}
			w.logger.Debug("change detected", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && watchSkipDirs[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func ignoreEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(event.Name)
	return strings.HasPrefix(base, ".#") || strings.HasSuffix(base, "~") ||
		strings.Contains(filepath.ToSlash(event.Name), "/.mapaudit/")
}
