package rules

import (
	"fmt"

	"alcr/internal/policy"
)

// BlockedModules reports tasks invoking a denylisted module.
type BlockedModules struct {
	BaseRule
	blocked *policy.BlockedModules
}

// NewBlockedModules returns the rule checking against blocked.
func NewBlockedModules(blocked *policy.BlockedModules) *BlockedModules {
	return &BlockedModules{
		BaseRule: BaseRule{
			RuleID:   IDBlockedModules,
			RuleName: NameBlockedModules,
			RuleDesc: "Tasks must not use blocked modules",
		},
		blocked: blocked,
	}
}

// Blocked returns the denylist the rule checks against.
func (r *BlockedModules) Blocked() *policy.BlockedModules {
	return r.blocked
}

// Check implements Rule. Each task is judged on its own.
func (r *BlockedModules) Check(t *Target) ([]Violation, error) {
	var violations []Violation
	for _, task := range t.Playbook.Tasks() {
		module := task.Module()
		if !r.blocked.Blocked(module) {
			continue
		}
		violations = append(violations, r.violation(
			t.Path(), task.Line, module,
			fmt.Sprintf("module '%s' is blocked", module),
		))
	}
	return violations, nil
}
