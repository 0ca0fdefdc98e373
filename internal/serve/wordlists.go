package serve

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// WordlistStore holds the server-side always-redact/ignore lists and keeps
// them fresh when the backing files change on disk.
type WordlistStore struct {
	redactPath string
	ignorePath string
	logger     *log.Logger

	mu     sync.RWMutex
	redact []string
	ignore []string

	watcher *fsnotify.Watcher
}

// NewWordlistStore loads both files (either may be empty, meaning no list).
func NewWordlistStore(redactPath, ignorePath string, logger *log.Logger) (*WordlistStore, error) {
	s := &WordlistStore{
		redactPath: redactPath,
		ignorePath: ignorePath,
		logger:     logger,
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Lists returns copies of the current lists.
func (s *WordlistStore) Lists() (alwaysRedact, alwaysIgnore []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.redact...), append([]string(nil), s.ignore...)
}

func (s *WordlistStore) reload() error {
	redact, err := loadWordlist(s.redactPath)
	if err != nil {
		return err
	}
	ignore, err := loadWordlist(s.ignorePath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.redact, s.ignore = redact, ignore
	s.mu.Unlock()
	return nil
}

// loadWordlist reads a YAML list of words. A missing path yields an empty
// list.
func loadWordlist(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read wordlist %s: %w", path, err)
	}
	var words []string
	if err := yaml.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse wordlist %s: %w", path, err)
	}
	out := words[:0]
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out, nil
}

// Watch reloads the lists whenever either file is written. Stop with Close.
func (s *WordlistStore) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start wordlist watcher: %w", err)
	}
	s.watcher = w

	watched := 0
	for _, p := range []string{s.redactPath, s.ignorePath} {
		if p == "" {
			continue
		}
		if err := w.Add(p); err != nil {
			s.logger.Warn("cannot watch wordlist", "path", p, "err", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = w.Close()
		s.watcher = nil
		return nil
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.reload(); err != nil {
					s.logger.Error("wordlist reload failed, keeping previous lists", "err", err)
					continue
				}
				s.logger.Info("wordlists reloaded", "path", ev.Name)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("wordlist watcher error", "err", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher if one is running.
func (s *WordlistStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
