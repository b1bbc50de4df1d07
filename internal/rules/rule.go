// Package rules defines the lint rule interface, the violations rules
// report and the registry mapping rule IDs to rules.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/go-git/go-billy/v5"

	"alcr/internal/playbook"
)

// Violation is a single finding of a rule.
type Violation struct {
	RuleID  string `json:"rule"`
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Subject string `json:"subject"` // variable or module name
	Message string `json:"message"`
}

// Fingerprint identifies a violation independently of its line number, so
// edits elsewhere in a file do not change it. Format: sha256:hex.
func (v Violation) Fingerprint() string {
	data := strings.Join([]string{v.RuleID, v.Path, v.Subject}, "\x00")
	hash := sha256.Sum256([]byte(data))
	return "sha256:" + hex.EncodeToString(hash[:])
}

// Target is one file handed to the rules.
type Target struct {
	FS       billy.Filesystem
	Playbook *playbook.Playbook
}

// Path returns the target's file path.
func (t *Target) Path() string {
	return t.Playbook.Path
}

// Rule is a lint check run against each target.
type Rule interface {
	ID() string
	Name() string
	Description() string
	Check(t *Target) ([]Violation, error)
}

// BaseRule carries the identity shared by every rule.
type BaseRule struct {
	RuleID   string
	RuleName string
	RuleDesc string
}

// ID implements Rule.
func (b BaseRule) ID() string { return b.RuleID }

// Name implements Rule.
func (b BaseRule) Name() string { return b.RuleName }

// Description implements Rule.
func (b BaseRule) Description() string { return b.RuleDesc }

func (b BaseRule) violation(path string, line int, subject, message string) Violation {
	return Violation{
		RuleID:  b.RuleID,
		Path:    path,
		Line:    line,
		Subject: subject,
		Message: message,
	}
}
