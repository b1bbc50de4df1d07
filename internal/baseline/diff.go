package baseline

import (
	"sort"

	"alcr/internal/rules"
)

// Diff compares a lint run against a baseline.
type Diff struct {
	BaselineName string            `json:"baselineName"`
	New          []rules.Violation `json:"new"`   // not accepted by the baseline
	Fixed        []Entry           `json:"fixed"` // accepted but no longer reported
}

// HasNew reports whether the run found violations outside the baseline.
func (d Diff) HasNew() bool {
	return len(d.New) > 0
}

// Compare splits current violations into new ones and finds the baseline
// entries that no longer occur. current keeps its order in New.
func Compare(b Baseline, current []rules.Violation) Diff {
	d := Diff{
		BaselineName: b.Name,
		New:          []rules.Violation{},
		Fixed:        []Entry{},
	}

	accepted := b.Accepted()
	seen := make(map[string]bool)
	for _, v := range current {
		fp := v.Fingerprint()
		seen[fp] = true
		if _, ok := accepted[fp]; !ok {
			d.New = append(d.New, v)
		}
	}

	for _, e := range b.Entries {
		if !seen[e.Fingerprint] {
			d.Fixed = append(d.Fixed, e)
		}
	}
	sort.Slice(d.Fixed, func(i, j int) bool {
		if d.Fixed[i].Path != d.Fixed[j].Path {
			return d.Fixed[i].Path < d.Fixed[j].Path
		}
		return d.Fixed[i].Subject < d.Fixed[j].Subject
	})
	return d
}
