// Package service watches a source folder and ingests every file that has
// stopped changing, then moves it to the archive or, on failure, to the
// bad folder.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ragchat/config"
	"ragchat/types"
)

type Ingester interface {
	AddDocument(ctx context.Context, path string) (*types.Document, error)
}

type FileState int

const (
	StateArchived FileState = iota
	StateBad
)

// seenFile remembers what a file looked like when it last changed.
type seenFile struct {
	since   time.Time
	size    int64
	modTime time.Time
}

type Service struct {
	cfg      config.LoaderConfig
	ingester Ingester
	logger   *slog.Logger

	mu         sync.Mutex
	seen       map[string]seenFile
	processing map[string]bool
}

func New(cfg config.LoaderConfig, ingester Ingester, logger *slog.Logger) (*Service, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := createDirectories(cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir); err != nil {
		return nil, err
	}
	return &Service{
		cfg:        cfg,
		ingester:   ingester,
		logger:     logger,
		seen:       make(map[string]seenFile),
		processing: make(map[string]bool),
	}, nil
}

// Run watches and processes files until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	fileChan := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		s.WatchFiles(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.ProcessFiles(ctx, fileChan)
	}()

	wg.Wait()
	s.logger.Info("loader service stopped")
}

// WatchFiles scans the source folder on every poll tick and on every
// filesystem event, and sends a file once its size and modification time
// have held still for MonitoringTime. Without file notifications it falls
// back to polling alone.
func (s *Service) WatchFiles(ctx context.Context, fileChan chan<- string) {
	s.logger.Info("start monitoring folder", "dir", s.cfg.SourceDir)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	// settle fires one MonitoringTime after the last event, when the file
	// that caused it can first be considered stable.
	settle := time.NewTimer(s.cfg.MonitoringTime)
	settle.Stop()
	defer settle.Stop()

	var (
		events    <-chan fsnotify.Event
		watchErrs <-chan error
	)
	if watcher, err := s.newWatcher(); err != nil {
		s.logger.Warn("file notifications unavailable, polling only", "dir", s.cfg.SourceDir, "error", err)
	} else {
		defer watcher.Close()
		events, watchErrs = watcher.Events, watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-settle.C:
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if !s.sendReady(ctx, fileChan) {
				return
			}
			settle.Reset(s.cfg.MonitoringTime)
			continue
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.logger.Warn("file watcher error", "error", err)
			continue
		}

		if !s.sendReady(ctx, fileChan) {
			return
		}
	}
}

func (s *Service) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(s.cfg.SourceDir); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// sendReady reports false when ctx ended before every ready file was sent.
func (s *Service) sendReady(ctx context.Context, fileChan chan<- string) bool {
	for _, path := range s.readyFiles() {
		select {
		case fileChan <- path:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (s *Service) readyFiles() []string {
	entries, err := os.ReadDir(s.cfg.SourceDir)
	if err != nil {
		s.logger.Error("failed to read source directory", "dir", s.cfg.SourceDir, "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ready []string
	current := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(s.cfg.SourceDir, entry.Name())
		current[path] = true
		if s.processing[path] {
			continue
		}

		prev, ok := s.seen[path]
		if !ok || prev.size != info.Size() || !prev.modTime.Equal(info.ModTime()) {
			if !ok {
				s.logger.Info("new file detected", "file", path)
			}
			s.seen[path] = seenFile{since: time.Now(), size: info.Size(), modTime: info.ModTime()}
			continue
		}

		if time.Since(prev.since) >= s.cfg.MonitoringTime {
			s.processing[path] = true
			ready = append(ready, path)
		}
	}

	for path := range s.seen {
		if !current[path] {
			delete(s.seen, path)
			delete(s.processing, path)
		}
	}
	return ready
}

// ProcessFiles ingests every file received on fileChan.
func (s *Service) ProcessFiles(ctx context.Context, fileChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-fileChan:
			if !ok {
				return
			}
			s.processFile(ctx, path)
		}
	}
}

func (s *Service) processFile(ctx context.Context, path string) {
	doc, err := s.ingester.AddDocument(ctx, path)
	if err != nil && ctx.Err() != nil {
		// Interrupted by shutdown: leave the file for the next run.
		s.release(path)
		return
	}

	state := StateArchived
	if err != nil {
		state = StateBad
		s.logger.Error("failed to ingest file", "file", path, "error", err)
	} else {
		s.logger.Info("file ingested", "file", path, "document", doc.ID, "chunks", len(doc.Chunks))
	}

	if _, err := s.MoveToArchive(path, state); err != nil {
		// The file stays marked as processing until it leaves the source
		// folder, so it is not ingested a second time.
		s.logger.Error("failed to move file, skipping it until it is removed", "file", path, "error", err)
	}
}

func (s *Service) release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processing, path)
	delete(s.seen, path)
}

// MoveToArchive moves path into a dated folder under the archive or bad
// directory and returns the new location. Name clashes get a numeric
// suffix.
func (s *Service) MoveToArchive(path string, state FileState) (string, error) {
	root := s.cfg.ArchiveDir
	if state == StateBad {
		root = s.cfg.BadDir
	}

	destDir := filepath.Join(root, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	destPath := filepath.Join(destDir, filepath.Base(path))
	ext := filepath.Ext(destPath)
	baseName := strings.TrimSuffix(filepath.Base(destPath), ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(destPath); errors.Is(err, os.ErrNotExist) {
			break
		}
		destPath = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", baseName, counter, ext))
	}

	if err := os.Rename(path, destPath); err != nil {
		// Rename fails across filesystems; fall back to copy and remove.
		if err := copyFile(path, destPath); err != nil {
			return "", err
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("remove source file: %w", err)
		}
	}

	s.logger.Info("file moved", "from", path, "to", destPath)
	return destPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy file: %w", err)
	}
	return out.Close()
}

func createDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			return errors.New("loader directories must be set")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
