package internal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last write to a
// file before checking it, so that editors saving in several steps trigger
// one check.
const DefaultDebounce = 100 * time.Millisecond

// Watcher re-checks grammar files whenever they are written.
type Watcher struct {
	engine     *Engine
	logger     *zap.Logger
	extensions []string
	debounce   time.Duration
	onReport   func(*Report)

	watcher *fsnotify.Watcher
	files   map[string]bool
	dirs    map[string]bool

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher that checks files with one of the given
// extensions. A nil logger disables logging.
func NewWatcher(engine *Engine, logger *zap.Logger, extensions []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		engine:     engine,
		logger:     logger,
		extensions: extensions,
		debounce:   DefaultDebounce,
		watcher:    fw,
		files:      make(map[string]bool),
		dirs:       make(map[string]bool),
		pending:    make(map[string]*time.Timer),
	}, nil
}

// OnReport sets the callback receiving every report. Without one, reports
// are only logged.
func (w *Watcher) OnReport(fn func(*Report)) {
	w.onReport = fn
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Add watches files and directory trees. For a file, its directory is
// watched and events for its siblings are ignored.
func (w *Watcher) Add(paths ...string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			w.files[abs] = true
			if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
				return fmt.Errorf("error adding %s to watcher: %w", path, err)
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			abs, err := filepath.Abs(p)
			if err != nil {
				return err
			}
			w.dirs[abs] = true
			return w.watcher.Add(p)
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	return nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFileEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for name, timer := range w.pending {
		timer.Stop()
		delete(w.pending, name)
	}
	w.mu.Unlock()
	_ = w.watcher.Close()
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.wants(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[event.Name]; ok {
		timer.Reset(w.debounce)
		return
	}
	name := event.Name
	w.pending[name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, name)
		w.mu.Unlock()
		w.check(name)
	})
}

func (w *Watcher) wants(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if w.files[abs] {
		return true
	}
	return w.dirs[filepath.Dir(abs)] && slices.Contains(w.extensions, filepath.Ext(abs))
}

func (w *Watcher) check(filename string) {
	report, err := w.engine.CheckFile(filename)
	if err != nil {
		w.logger.Error("error checking grammar", zap.String("file", filename), zap.Error(err))
		return
	}
	w.reportIssues(report)
	if w.onReport != nil {
		w.onReport(report)
	}
}

func (w *Watcher) reportIssues(report *Report) {
	if len(report.Issues) == 0 {
		w.logger.Info("no issues found", zap.String("file", report.Filename), zap.Bool("cnf", report.IsCNF()))
		return
	}
	w.logger.Info("issues found",
		zap.String("file", report.Filename),
		zap.Bool("cnf", report.IsCNF()),
		zap.Int("count", len(report.Issues)),
	)
	for _, issue := range report.Issues {
		w.logger.Info("issue",
			zap.String("rule", issue.Rule),
			zap.Int("line", issue.Start.Line),
			zap.String("message", issue.Message),
		)
	}
}
