package ingestor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/GabrielNunesIT/log-payload/internal/config"
)

// DirIngestor watches a directory and turns the lines appended to matching
// files into batches. A file's new lines are read once writes to it have been
// quiet for the debounce interval.
type DirIngestor struct {
	cfg    config.WatchConfig
	name   string
	logger zerolog.Logger
}

// NewDirIngestor creates a new directory watching ingestor.
func NewDirIngestor(cfg config.WatchConfig, log zerolog.Logger) *DirIngestor {
	if cfg.Pattern == "" {
		cfg.Pattern = "*"
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &DirIngestor{
		cfg:    cfg,
		name:   "dir:" + cfg.Dir,
		logger: log.With().Str("component", "DirIngestor").Str("dir", cfg.Dir).Logger(),
	}
}

// Name returns the ingestor identifier.
func (f *DirIngestor) Name() string {
	return f.name
}

// Start watches the directory and sends a batch per quiet file.
// Files that exist at startup are tailed from their current end.
func (f *DirIngestor) Start(ctx context.Context, out chan<- Batch) error {
	defer close(out)

	if _, err := filepath.Match(f.cfg.Pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", f.cfg.Pattern, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.cfg.Dir); err != nil {
		return fmt.Errorf("watching directory %q: %w", f.cfg.Dir, err)
	}

	// Track file positions
	positions := make(map[string]int64)
	matches, _ := filepath.Glob(filepath.Join(f.cfg.Dir, f.cfg.Pattern))
	for _, file := range matches {
		if f.isExcluded(file) {
			continue
		}
		if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
			positions[file] = info.Size()
		}
	}

	f.logger.Info().Int("files", len(positions)).Msg("watching directory")

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(f.cfg.Debounce/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !f.matches(event.Name) {
				continue
			}

			// Handle file rotation (create after delete)
			if event.Op&fsnotify.Create == fsnotify.Create {
				positions[event.Name] = 0
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending[event.Name] = time.Now()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(positions, event.Name)
				delete(pending, event.Name)
			}

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < f.cfg.Debounce {
					continue
				}
				delete(pending, path)

				batch, newPos, err := f.readNew(path, positions[path])
				if err != nil {
					// Log error but continue watching
					f.logger.Warn().Err(err).Str("file", path).Msg("reading file")
					continue
				}
				positions[path] = newPos
				if len(batch.Messages) == 0 {
					continue
				}

				select {
				case out <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// readNew reads the complete lines of path written after pos.
func (f *DirIngestor) readNew(path string, pos int64) (Batch, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return Batch{}, pos, err
	}
	defer file.Close()

	// Check if file was truncated (rotated)
	info, err := file.Stat()
	if err != nil {
		return Batch{}, pos, err
	}
	if info.Size() < pos {
		pos = 0 // File was truncated, read from beginning
	}

	if _, err := file.Seek(pos, io.SeekStart); err != nil {
		return Batch{}, pos, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return Batch{}, pos, err
	}

	complete := splitComplete(data)
	msgs, err := ReadMessages(bytes.NewReader(complete))
	if err != nil {
		return Batch{}, pos, err
	}

	f.logger.Debug().Str("file", path).Int("messages", len(msgs)).Msg("read new lines")
	return Batch{Source: path, Messages: msgs}, pos + int64(len(complete)), nil
}

// matches reports whether a path is a watched, non-excluded file of the directory.
func (f *DirIngestor) matches(path string) bool {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(f.cfg.Dir) {
		return false
	}
	matched, _ := filepath.Match(f.cfg.Pattern, filepath.Base(path))
	return matched && !f.isExcluded(path)
}

// isExcluded checks if a file matches any exclude pattern.
func (f *DirIngestor) isExcluded(file string) bool {
	for _, pattern := range f.cfg.Exclude {
		matched, _ := filepath.Match(pattern, filepath.Base(file))
		if matched {
			return true
		}
	}
	return false
}
