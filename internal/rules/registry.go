package rules

import (
	"errors"
	"fmt"
	"sort"

	"alcr/internal/config"
	"alcr/internal/policy"
)

// ErrUnknownRule is returned when a rule ID or name is not registered.
var ErrUnknownRule = errors.New("unknown rule")

// Rule IDs and names.
const (
	IDBlockedModules   = "custom_2020_1"
	NameBlockedModules = "blocked_modules"

	IDVariablesNaming   = "custom_2020_3"
	NameVariablesNaming = "variables_naming"
)

// KnownOptions lists the config options each rule reads.
var KnownOptions = config.Known{
	IDBlockedModules: {config.OptBlockedModules},
	IDVariablesNaming: {
		config.OptUseAnsible,
		config.OptVarNameRE,
		config.OptInventory,
		config.OptRolesPath,
	},
}

// Registry maps rule IDs to rules. It is built once and read-only after.
type Registry struct {
	rules  map[string]Rule
	byName map[string]string
}

// NewRegistry registers rules. IDs and names must be unique.
func NewRegistry(rs ...Rule) (*Registry, error) {
	r := &Registry{
		rules:  make(map[string]Rule, len(rs)),
		byName: make(map[string]string, len(rs)),
	}
	for _, rule := range rs {
		if _, dup := r.rules[rule.ID()]; dup {
			return nil, fmt.Errorf("duplicate rule ID: '%s'", rule.ID())
		}
		if _, dup := r.byName[rule.Name()]; dup {
			return nil, fmt.Errorf("duplicate rule name: '%s'", rule.Name())
		}
		r.rules[rule.ID()] = rule
		r.byName[rule.Name()] = rule.ID()
	}
	return r, nil
}

// FromConfig builds the registry of every built-in rule configured from cfg.
func FromConfig(cfg config.Config) (*Registry, error) {
	// An unset option yields nil, selecting the default denylist.
	blocked, _ := cfg.List(IDBlockedModules, config.OptBlockedModules)

	naming, err := policy.NewNaming(
		cfg.String(IDVariablesNaming, config.OptVarNameRE),
		cfg.Bool(IDVariablesNaming, config.OptUseAnsible),
	)
	if err != nil {
		return nil, fmt.Errorf("rule '%s': %w", IDVariablesNaming, err)
	}

	return NewRegistry(
		NewBlockedModules(policy.NewBlockedModules(blocked)),
		NewVariablesNaming(naming, VariablesNamingOptions{
			Inventory: cfg.String(IDVariablesNaming, config.OptInventory),
			RolesPath: cfg.PathList(IDVariablesNaming, config.OptRolesPath),
		}),
	)
}

// Lookup returns the rule registered under an ID or a name.
func (r *Registry) Lookup(key string) (Rule, error) {
	if rule, ok := r.rules[key]; ok {
		return rule, nil
	}
	if id, ok := r.byName[key]; ok {
		return r.rules[id], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRule, key)
}

// All returns every registered rule sorted by ID.
func (r *Registry) All() []Rule {
	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Rule, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.rules[id])
	}
	return out
}

// Select returns the rules named by keys (IDs or names), or every rule when
// keys is empty.
func (r *Registry) Select(keys []string) ([]Rule, error) {
	if len(keys) == 0 {
		return r.All(), nil
	}

	seen := make(map[string]bool)
	var out []Rule
	for _, key := range keys {
		rule, err := r.Lookup(key)
		if err != nil {
			return nil, err
		}
		if seen[rule.ID()] {
			continue
		}
		seen[rule.ID()] = true
		out = append(out, rule)
	}
	return out, nil
}
