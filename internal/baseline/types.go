package baseline

import (
	"sort"
	"time"

	"alcr/internal/rules"
)

// Baseline is a named set of accepted violations.
type Baseline struct {
	Name      string    `json:"name"`
	Entries   []Entry   `json:"entries"`
	Timestamp time.Time `json:"timestamp"` // When baseline was created
}

// Entry is one accepted violation.
type Entry struct {
	Fingerprint string `json:"fingerprint"`
	RuleID      string `json:"rule"`
	Path        string `json:"path"`
	Subject     string `json:"subject"`
}

// Summary is a lightweight view for listing baselines.
type Summary struct {
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// New builds a baseline accepting every given violation. Entries are
// deduplicated by fingerprint and sorted.
func New(name string, violations []rules.Violation, now time.Time) Baseline {
	b := Baseline{Name: name, Entries: []Entry{}, Timestamp: now.UTC()}

	seen := make(map[string]bool)
	for _, v := range violations {
		fp := v.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		b.Entries = append(b.Entries, Entry{
			Fingerprint: fp,
			RuleID:      v.RuleID,
			Path:        v.Path,
			Subject:     v.Subject,
		})
	}

	sort.Slice(b.Entries, func(i, j int) bool {
		return b.Entries[i].Fingerprint < b.Entries[j].Fingerprint
	})
	return b
}

// Accepted returns the set of accepted fingerprints.
func (b Baseline) Accepted() map[string]struct{} {
	set := make(map[string]struct{}, len(b.Entries))
	for _, e := range b.Entries {
		set[e.Fingerprint] = struct{}{}
	}
	return set
}
