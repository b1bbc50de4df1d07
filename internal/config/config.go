// Package config resolves rule options from the built-in defaults, a YAML
// config file and the environment, in increasing order of precedence.
package config

import (
	"strings"
)

// EnvPrefix starts every rule option environment variable.
const EnvPrefix = "_ANSIBLE_LINT_RULE_"

// DefaultFile is the config file read when none is given explicitly.
const DefaultFile = ".ansible-lint"

// Option names understood by the rules.
const (
	OptUseAnsible     = "use_ansible"
	OptVarNameRE      = "var_name_re"
	OptInventory      = "inventory"
	OptBlockedModules = "blocked_modules"
	OptRolesPath      = "roles_path"
)

// RuleOptions holds the raw option values of one rule.
type RuleOptions map[string]string

// Config holds the raw option values of every rule, keyed by rule ID. A
// resolved Config is never modified; Resolve returns a new value.
type Config struct {
	Rules map[string]RuleOptions
}

// Known lists the options each rule reads, keyed by rule ID.
type Known map[string][]string

// EnvVarName converts a rule ID and option name to the environment variable
// that overrides it, e.g. ("custom_2020_3", "var_name_re") ->
// "_ANSIBLE_LINT_RULE_CUSTOM_2020_3_VAR_NAME_RE".
func EnvVarName(ruleID, option string) string {
	return EnvPrefix + strings.ToUpper(ruleID) + "_" + strings.ToUpper(option)
}

// Resolve layers environment overrides on top of base for every known
// option. environ has the os.Environ format.
func Resolve(base Config, known Known, environ []string) Config {
	envMap := parseEnviron(environ)

	out := base.clone()

	for id, options := range known {
		for _, opt := range options {
			value, present := envMap[EnvVarName(id, opt)]
			if !present {
				continue
			}
			if out.Rules[id] == nil {
				out.Rules[id] = make(RuleOptions)
			}
			out.Rules[id][opt] = value
		}
	}
	return out
}

// With returns a copy of c with one option set.
func (c Config) With(ruleID, option, value string) Config {
	out := c.clone()
	if out.Rules[ruleID] == nil {
		out.Rules[ruleID] = make(RuleOptions)
	}
	out.Rules[ruleID][option] = value
	return out
}

func (c Config) clone() Config {
	out := Config{Rules: make(map[string]RuleOptions, len(c.Rules))}
	for id, opts := range c.Rules {
		out.Rules[id] = make(RuleOptions, len(opts))
		for k, v := range opts {
			out.Rules[id][k] = v
		}
	}
	return out
}

// Get returns the raw value of a rule option.
func (c Config) Get(ruleID, option string) (string, bool) {
	opts, ok := c.Rules[ruleID]
	if !ok {
		return "", false
	}
	v, ok := opts[option]
	return v, ok
}

// String returns the value of a rule option, or "".
func (c Config) String(ruleID, option string) string {
	v, _ := c.Get(ruleID, option)
	return v
}

// Bool interprets a rule option as a bool-like value: 1, true, yes and on
// are true, case-insensitively; anything else, or absence, is false.
func (c Config) Bool(ruleID, option string) bool {
	v, _ := c.Get(ruleID, option)
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// List splits a rule option on commas and whitespace. The second result is
// false when the option is not set at all.
func (c Config) List(ruleID, option string) ([]string, bool) {
	v, ok := c.Get(ruleID, option)
	if !ok {
		return nil, false
	}
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if fields == nil {
		fields = []string{}
	}
	return fields, true
}

// PathList splits a rule option on ':' like ANSIBLE_ROLES_PATH.
func (c Config) PathList(ruleID, option string) []string {
	v, _ := c.Get(ruleID, option)
	var paths []string
	for _, p := range strings.Split(v, ":") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// parseEnviron converts an environ slice (["KEY=VALUE", ...]) into a map.
// Values may contain "="; entries without one are skipped.
func parseEnviron(environ []string) map[string]string {
	result := make(map[string]string)
	for _, entry := range environ {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		result[key] = value
	}
	return result
}
