// Package inbox ingests files dropped into a watched directory.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is ingested.
const DefaultSettle = 2 * time.Second

// Config describes a watched inbox.
type Config struct {
	Dir       string
	ModuleID  string
	TeacherID string
	TestBank  bool

	// Settle delays ingestion until writes to a file stop.
	Settle time.Duration
}

// Result reports the outcome for one file.
type Result struct {
	Path     string
	Document *domain.Document
	Queued   bool
	Err      error
}

// Watcher ingests new and changed files in an inbox directory.
type Watcher struct {
	cfg        Config
	ingest     driving.IngestService
	dispatcher driven.TaskDispatcher
	log        *logger.Logger

	// OnResult is called after each file is handled. Optional.
	OnResult func(Result)

	pending map[string]time.Time
}

// New creates a watcher. A nil dispatcher runs the pipeline inline.
func New(cfg Config, ingest driving.IngestService, dispatcher driven.TaskDispatcher) (*Watcher, error) {
	if ingest == nil {
		return nil, errors.New("inbox: ingest service is required")
	}
	if cfg.ModuleID == "" {
		return nil, fmt.Errorf("inbox: module: %w", domain.ErrInvalidInput)
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox: %s is not a directory", cfg.Dir)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}

	return &Watcher{
		cfg:        cfg,
		ingest:     ingest,
		dispatcher: dispatcher,
		log:        logger.With("component", "inbox", "dir", cfg.Dir),
		pending:    make(map[string]time.Time),
	}, nil
}

// ScanExisting ingests the files already present in the inbox, in name order.
func (w *Watcher) ScanExisting(ctx context.Context) []Result {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.log.Warn("scan failed", "error", err)
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var results []Result
	for _, e := range entries {
		path := filepath.Join(w.cfg.Dir, e.Name())
		if !eligible(path) {
			continue
		}
		results = append(results, w.handle(ctx, path))
	}
	return results
}

// Run watches the inbox until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("inbox: watching %s: %w", w.cfg.Dir, err)
	}
	w.log.Info("watching", "module", w.cfg.ModuleID)

	ticker := time.NewTicker(w.cfg.Settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.observe(ev, time.Now())
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				w.handle(ctx, path)
			}
		}
	}
}

// observe records a create or write of an eligible file.
// Removals and renames are ignored: uploaded documents outlive inbox files.
func (w *Watcher) observe(ev fsnotify.Event, now time.Time) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if !eligible(ev.Name) {
		return false
	}
	w.pending[ev.Name] = now
	return true
}

// settled removes and returns the pending paths untouched for the settle period.
func (w *Watcher) settled(now time.Time) []string {
	var ready []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.cfg.Settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

// handle uploads one file and runs or enqueues the pipeline.
func (w *Watcher) handle(ctx context.Context, path string) Result {
	res := w.process(ctx, path)
	switch {
	case errors.Is(res.Err, domain.ErrDuplicateDocument):
		w.log.Debug("already uploaded", "file", path)
	case res.Err != nil:
		w.log.Warn("ingest failed", "file", path, "error", res.Err)
	default:
		w.log.Info("ingested", "file", path, "document", res.Document.ID, "status", res.Document.Status)
	}
	if w.OnResult != nil {
		w.OnResult(res)
	}
	return res
}

func (w *Watcher) process(ctx context.Context, path string) Result {
	res := Result{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}

	doc, err := w.ingest.Ingest(ctx, domain.Upload{
		FileName:   filepath.Base(path),
		Content:    content,
		TeacherID:  w.cfg.TeacherID,
		ModuleID:   w.cfg.ModuleID,
		IsTestBank: w.cfg.TestBank,
	})
	res.Document = doc
	if err != nil {
		res.Err = err
		return res
	}

	if w.dispatcher != nil {
		if err := w.dispatcher.EnqueueProcess(ctx, doc.ID); err != nil {
			res.Err = err
			return res
		}
		res.Queued = true
		return res
	}

	processed, err := w.ingest.Process(ctx, doc.ID)
	if processed != nil {
		res.Document = processed
	}
	res.Err = err
	return res
}

// eligible reports whether path is a visible regular file.
func eligible(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
