// Package policy holds the immutable policies the lint rules evaluate:
// the variable naming policy and the blocked module denylist.
package policy

import (
	"fmt"
	"regexp"
)

// DefaultVarNameRE is the naming pattern used when none is configured:
// lowercase letters, digits and underscores, not starting with a digit.
const DefaultVarNameRE = `^[a-z_][a-z0-9_]*$`

// Naming decides whether a variable name is compliant. It is built once per
// run and never modified afterwards.
type Naming struct {
	pattern    string
	re         *regexp.Regexp
	useAnsible bool
}

// NewNaming compiles pattern as a full-match naming policy. An empty pattern
// selects DefaultVarNameRE. With useAnsible set, names ansible itself accepts
// as identifiers are compliant even when the pattern rejects them.
func NewNaming(pattern string, useAnsible bool) (*Naming, error) {
	if pattern == "" {
		pattern = DefaultVarNameRE
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid variable name pattern %q: %w", pattern, err)
	}
	return &Naming{pattern: pattern, re: re, useAnsible: useAnsible}, nil
}

// Pattern returns the configured pattern as given.
func (n *Naming) Pattern() string {
	return n.pattern
}

// UseAnsible reports whether the ansible identifier check is an exemption.
func (n *Naming) UseAnsible() bool {
	return n.useAnsible
}

// Compliant reports whether name satisfies the policy.
func (n *Naming) Compliant(name string) bool {
	if n.re.MatchString(name) {
		return true
	}
	return n.useAnsible && IsIdentifier(name)
}

// Reason explains why name is not compliant.
func (n *Naming) Reason(name string) string {
	if n.useAnsible {
		return fmt.Sprintf("variable name '%s' does not match '%s' and is not a valid ansible identifier", name, n.pattern)
	}
	return fmt.Sprintf("variable name '%s' does not match '%s'", name, n.pattern)
}
