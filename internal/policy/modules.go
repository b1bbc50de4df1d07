package policy

import (
	"sort"
	"strings"
)

// DefaultBlockedModules is the denylist used when none is configured.
var DefaultBlockedModules = []string{"include", "shell", "raw"}

// BlockedModules is an immutable module denylist.
type BlockedModules struct {
	names map[string]struct{}
}

// NewBlockedModules builds a denylist. A nil slice selects
// DefaultBlockedModules; an empty non-nil slice blocks nothing.
func NewBlockedModules(names []string) *BlockedModules {
	if names == nil {
		names = DefaultBlockedModules
	}
	b := &BlockedModules{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			b.names[n] = struct{}{}
		}
	}
	return b
}

// Blocked reports whether module is denylisted. Short names on the list also
// match their ansible.builtin. and ansible.legacy. forms.
func (b *BlockedModules) Blocked(module string) bool {
	if module == "" {
		return false
	}
	if _, ok := b.names[module]; ok {
		return true
	}
	for _, prefix := range []string{"ansible.builtin.", "ansible.legacy."} {
		if strings.HasPrefix(module, prefix) {
			_, ok := b.names[strings.TrimPrefix(module, prefix)]
			return ok
		}
	}
	return false
}

// Names returns the denylist sorted.
func (b *BlockedModules) Names() []string {
	names := make([]string, 0, len(b.names))
	for n := range b.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
