// Package templates maintains the catalog of base resume templates. The
// store scans a directory for .tex files, serves them by name, and can
// watch the directory so edits show up without restarting the process.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"textailor/internal/errors"
)

const templateExtension = ".tex"

// Store serves resume templates from a directory. All methods are safe for
// concurrent use.
type Store struct {
	mu sync.RWMutex

	dir   string
	paths map[string]string // template name -> file path

	// Watcher components
	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	// Control channels
	stopChan   chan struct{}
	rescanChan chan struct{}

	logger *errors.Logger

	// State
	watching bool
}

// NewStore creates a store rooted at dir and performs the initial scan.
// A missing or empty directory is not an error; the store is simply empty.
func NewStore(dir string, logger *errors.Logger) (*Store, error) {
	s := &Store{
		dir:           dir,
		paths:         make(map[string]string),
		debounceDelay: time.Second,
		stopChan:      make(chan struct{}),
		rescanChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}

	if err := s.rescan(); err != nil {
		return nil, err
	}

	return s, nil
}

// List returns the available template names in sorted order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.paths))
	for name := range s.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the contents of the named template. The name is the file name
// without its .tex extension.
func (s *Store) Get(name string) (string, error) {
	s.mu.RLock()
	path, ok := s.paths[name]
	s.mu.RUnlock()

	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeTemplateNotFound,
			fmt.Sprintf("Template '%s' not found in %s", name, s.dir), nil).
			WithContext("available", s.List())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read template file: %s", path), err)
	}
	return string(data), nil
}

// Dir returns the directory the store scans.
func (s *Store) Dir() string {
	return s.dir
}

// rescan rebuilds the name index from the directory contents.
func (s *Store) rescan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.paths = make(map[string]string)
			s.mu.Unlock()
			return nil
		}
		return errors.NewIOError("TEMPLATE_DIR_READ_FAILED",
			fmt.Sprintf("Cannot read template directory: %s", s.dir), err)
	}

	paths := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), templateExtension) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), templateExtension)
		paths[name] = filepath.Join(s.dir, entry.Name())
	}

	s.mu.Lock()
	s.paths = paths
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("Template directory scanned", "dir", s.dir, "templates", len(paths))
	}
	return nil
}

// Watch begins watching the template directory for changes and rescans on
// each change, debounced so editor save bursts trigger a single rescan.
func (s *Store) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watching {
		return fmt.Errorf("template watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(s.dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil && s.logger != nil {
			s.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return fmt.Errorf("failed to watch template directory %s: %w", s.dir, err)
	}

	s.fsWatcher = watcher
	s.watching = true
	go s.watchLoop()

	if s.logger != nil {
		s.logger.Info("Template directory watcher started",
			"dir", s.dir,
			"debounce_delay", s.debounceDelay)
	}
	return nil
}

// Close stops the watcher if it is running.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.watching {
		return nil
	}

	close(s.stopChan)

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}

	if err := s.fsWatcher.Close(); err != nil {
		if s.logger != nil {
			s.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}

	s.watching = false

	if s.logger != nil {
		s.logger.Info("Template directory watcher stopped")
	}
	return nil
}

// IsWatching returns whether the directory watcher is currently running.
func (s *Store) IsWatching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watching
}

// watchLoop is the main event loop for directory watching.
func (s *Store) watchLoop() {
	for {
		select {
		case event, ok := <-s.fsWatcher.Events:
			if !ok {
				return
			}
			if s.shouldProcessEvent(event) {
				s.scheduleRescan()
			}

		case err, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
			if s.logger != nil {
				s.logger.LogError(err, "Template watcher error")
			}

		case <-s.rescanChan:
			if err := s.rescan(); err != nil {
				if s.logger != nil {
					s.logger.LogError(err, "Template rescan failed")
				}
			} else if s.logger != nil {
				s.logger.Info("Template directory changed, store reloaded",
					"templates", len(s.List()))
			}

		case <-s.stopChan:
			return
		}
	}
}

// shouldProcessEvent reports whether an event affects a template file.
// Removes and renames matter as much as writes; they change the catalog.
func (s *Store) shouldProcessEvent(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, templateExtension) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// scheduleRescan schedules a debounced rescan.
func (s *Store) scheduleRescan() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}

	s.debounceTimer = time.AfterFunc(s.debounceDelay, func() {
		select {
		case s.rescanChan <- struct{}{}:
			// Rescan scheduled
		default:
			// Channel is full, rescan already scheduled
		}
	})
}
