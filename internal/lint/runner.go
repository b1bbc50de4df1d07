// Package lint runs the selected rules over a set of files and
// directories.
package lint

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/multierr"

	"alcr/internal/log"
	"alcr/internal/playbook"
	"alcr/internal/rules"
	"alcr/internal/yamlscan"
)

// targetPattern selects the files linted below a directory argument.
const targetPattern = "**/*.{yml,yaml}"

// Runner dispatches rules over targets.
type Runner struct {
	FS    billy.Filesystem
	Rules []rules.Rule

	// Base, when set, makes reported paths below it relative to it.
	// Fingerprints are computed on the reported path.
	Base string

	// Accepted holds fingerprints of violations to suppress.
	Accepted map[string]struct{}
}

// Result is the outcome of a run.
type Result struct {
	Files      int               // files handed to the rules
	Violations []rules.Violation // sorted by path, line and rule ID
	Suppressed []rules.Violation // accepted violations, not reported
}

// Run lints every file named by paths; directories are searched for YAML
// files. Errors for individual files are collected and returned together
// with the violations found elsewhere. Cancellation is checked between
// files.
func (r *Runner) Run(ctx context.Context, paths []string) (Result, error) {
	logger := log.WithComponent("lint")

	files, err := r.expand(paths)
	if err != nil {
		return Result{}, err
	}

	var (
		result Result
		errs   error
		seen   = make(map[violationKey]bool)
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return r.finish(result), multierr.Append(errs, err)
		}

		pb, err := playbook.Load(r.FS, path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if pb.Kind == playbook.KindUnknown {
			logger.Debug().Str("path", path).Msg("not a playbook or task file, skipping")
			continue
		}
		logger.Debug().Str("path", path).Stringer("kind", pb.Kind).Msg("linting")
		result.Files++

		target := &rules.Target{FS: r.FS, Playbook: pb}
		for _, rule := range r.Rules {
			vs, err := rule.Check(target)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: rule %s: %w", path, rule.ID(), err))
				continue
			}
			for _, v := range vs {
				v.Path = r.display(v.Path)
				key := violationKey{v.RuleID, v.Path, v.Line, v.Subject}
				if seen[key] {
					continue
				}
				seen[key] = true
				if _, ok := r.Accepted[v.Fingerprint()]; ok {
					result.Suppressed = append(result.Suppressed, v)
					continue
				}
				result.Violations = append(result.Violations, v)
			}
		}
	}

	return r.finish(result), errs
}

type violationKey struct {
	rule    string
	path    string
	line    int
	subject string
}

func (r *Runner) finish(result Result) Result {
	Sort(result.Violations)
	Sort(result.Suppressed)
	return result
}

// Sort orders violations by path, line and rule ID.
func Sort(vs []rules.Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
}

func (r *Runner) display(path string) string {
	if r.Base == "" {
		return path
	}
	rel, err := filepath.Rel(r.Base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// expand resolves directory arguments to the YAML files below them. Files
// named explicitly are kept as given; duplicates are dropped.
func (r *Runner) expand(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		info, err := r.FS.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		matches, err := yamlscan.Glob(r.FS, p, targetPattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}
	return files, nil
}
