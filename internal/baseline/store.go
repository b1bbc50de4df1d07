// Package baseline stores accepted violations by name so later runs report
// only what is new.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ErrBaselineNotFound is returned when a baseline doesn't exist.
var ErrBaselineNotFound = errors.New("baseline not found")

// EnvDir overrides the baseline directory.
const EnvDir = "ALCR_BASELINE_DIR"

// Store manages baseline persistence.
type Store struct {
	FS  billy.Filesystem
	Dir string // Base directory for baselines
}

// NewStore creates a store with the given directory.
func NewStore(fs billy.Filesystem, dir string) *Store {
	return &Store{FS: fs, Dir: dir}
}

// DefaultDir returns the default baseline directory (~/.alcr/baselines).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".alcr", "baselines")
	}
	return filepath.Join(home, ".alcr", "baselines")
}

// ResolveDir returns the baseline directory from env var or default.
func ResolveDir(environ []string) string {
	for _, env := range environ {
		if v, ok := strings.CutPrefix(env, EnvDir+"="); ok && v != "" {
			return v
		}
	}
	return DefaultDir()
}

// Save stores a baseline under its name, replacing any previous one.
func (s *Store) Save(b Baseline) error {
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("baseline name is empty")
	}
	if err := s.FS.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFile(s.FS, s.path(b.Name), data, 0o644)
}

// Load retrieves a baseline by name.
func (s *Store) Load(name string) (Baseline, error) {
	data, err := util.ReadFile(s.FS, s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Baseline{}, fmt.Errorf("%w: %s", ErrBaselineNotFound, name)
		}
		return Baseline{}, err
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return Baseline{}, fmt.Errorf("baseline %s: %w", name, err)
	}
	return b, nil
}

// List returns all stored baselines as summaries, sorted by name.
func (s *Store) List() ([]Summary, error) {
	entries, err := s.FS.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Summary{}, nil
		}
		return nil, err
	}

	summaries := []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := util.ReadFile(s.FS, s.FS.Join(s.Dir, entry.Name()))
		if err != nil {
			continue // Skip unreadable files
		}

		var b Baseline
		if err := json.Unmarshal(data, &b); err != nil {
			continue // Skip invalid JSON
		}

		summaries = append(summaries, Summary{
			Name:      b.Name,
			Count:     len(b.Entries),
			Timestamp: b.Timestamp,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}

// Delete removes a baseline by name.
func (s *Store) Delete(name string) error {
	if err := s.FS.Remove(s.path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBaselineNotFound, name)
		}
		return err
	}
	return nil
}

// Exists checks if a baseline exists.
func (s *Store) Exists(name string) bool {
	_, err := s.FS.Stat(s.path(name))
	return err == nil
}

// path returns the file path for a baseline name.
func (s *Store) path(name string) string {
	// Sanitize name for filesystem
	safeName := strings.ReplaceAll(name, "/", "_")
	safeName = strings.ReplaceAll(safeName, "\\", "_")
	return s.FS.Join(s.Dir, safeName+".json")
}
