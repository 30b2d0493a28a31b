// Package watcher ingests documents dropped into a watched directory.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pedaragy/pedaragy"
)

// Watcher monitors a directory and feeds new or rewritten files into the
// ingestion pipeline. Re-ingesting the same file is harmless: the pipeline
// drops the document's previous chunks before indexing the new ones.
type Watcher struct {
	svc        pedaragy.Service
	watcher    *fsnotify.Watcher
	extensions []string
	log        *zap.Logger

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func New(svc pedaragy.Service, extensions []string, log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".txt", ".md", ".pdf", ".docx"}
	}

	return &Watcher{
		svc:        svc,
		watcher:    w,
		extensions: extensions,
		log: log.With(
			zap.String("component", "watcher"),
		),
		lastSeen: make(map[string]time.Time),
	}, nil
}

// Watch blocks until ctx is done, ingesting every created or rewritten file
// with a watched extension.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	log := w.log.With(
		zap.String("dir", dir),
	)

	log.Info("watching for documents")

	for {
		select {
		case <-ctx.Done():
			log.Info("done")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if !w.isWatchedExtension(event.Name) {
				continue
			}

			if !w.shouldIngest(event.Name) {
				continue
			}

			report, err := w.svc.IngestDocuments(ctx, []string{event.Name})
			if err != nil {
				log.Error(err.Error(), zap.String("file", event.Name))
				continue
			}

			if len(report.Failed) > 0 {
				log.Warn("file not ingested",
					zap.String("file", event.Name),
					zap.String("reason", report.Failed[0].Reason),
				)
				continue
			}

			log.Info("file ingested",
				zap.String("file", event.Name),
				zap.Int("chunks", report.TotalChunks),
			)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			log.Error(err.Error())
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}

	return false
}

// shouldIngest suppresses the burst of write events a single copy produces.
func (w *Watcher) shouldIngest(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if last, ok := w.lastSeen[path]; ok && now.Sub(last) < 2*time.Second {
		return false
	}

	w.lastSeen[path] = now
	return true
}
