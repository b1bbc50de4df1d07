package rules

import (
	"fmt"

	"alcr/internal/playbook"
	"alcr/internal/policy"
	"alcr/internal/varnames"
)

// VariablesNamingOptions locate the sources beyond the playbook itself.
type VariablesNamingOptions struct {
	Inventory string   // inventory file; names from it are checked too
	RolesPath []string // extra role search directories
}

// VariablesNaming reports variable names violating the naming policy.
type VariablesNaming struct {
	BaseRule
	policy *policy.Naming
	opts   VariablesNamingOptions
}

// NewVariablesNaming returns the rule evaluating names against naming.
func NewVariablesNaming(naming *policy.Naming, opts VariablesNamingOptions) *VariablesNaming {
	return &VariablesNaming{
		BaseRule: BaseRule{
			RuleID:   IDVariablesNaming,
			RuleName: NameVariablesNaming,
			RuleDesc: "Variable names must follow the naming policy",
		},
		policy: naming,
		opts:   opts,
	}
}

// Policy returns the naming policy the rule evaluates.
func (r *VariablesNaming) Policy() *policy.Naming {
	return r.policy
}

// Collector returns the variable collector the rule uses for t.
func (r *VariablesNaming) Collector(t *Target) *varnames.Collector {
	return &varnames.Collector{
		FS:        t.FS,
		Inventory: r.opts.Inventory,
		RolesPath: r.opts.RolesPath,
	}
}

// Check implements Rule. Only playbooks declare the names checked here.
func (r *VariablesNaming) Check(t *Target) ([]Violation, error) {
	if t.Playbook.Kind != playbook.KindPlaybook {
		return nil, nil
	}

	c := r.Collector(t)
	vars, err := c.FromPlaybook(t.Playbook)
	if err != nil {
		return nil, err
	}
	if r.opts.Inventory != "" {
		invVars, err := c.FromInventory()
		if err != nil {
			return nil, fmt.Errorf("inventory %s: %w", r.opts.Inventory, err)
		}
		vars = append(vars, invVars...)
	}

	var violations []Violation
	for _, v := range vars {
		if r.policy.Compliant(v.Name) {
			continue
		}
		violations = append(violations, r.violation(v.Path, v.Line, v.Name, r.policy.Reason(v.Name)))
	}
	return violations, nil
}
