package config

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"

	"alcr/internal/yamlscan"
)

// configFile is the YAML structure of the config file. Other top-level keys
// belong to the host linter and are ignored.
type configFile struct {
	Rules map[string]map[string]yaml.Node `yaml:"rules"`
}

// ParseFile parses config file content. Option values may be scalars or
// sequences of scalars; sequences are stored comma-joined. Null values are
// treated as absent.
func ParseFile(content []byte) (Config, error) {
	var cf configFile
	if err := yaml.Unmarshal(content, &cf); err != nil {
		return Config{}, fmt.Errorf("invalid YAML: %w", err)
	}

	cfg := Config{Rules: make(map[string]RuleOptions, len(cf.Rules))}
	for id, opts := range cf.Rules {
		ro := make(RuleOptions, len(opts))
		for name, node := range opts {
			if isNull(&node) {
				// A null value leaves the option unset.
				continue
			}
			value, err := optionValue(&node)
			if err != nil {
				return Config{}, fmt.Errorf("rule '%s' option '%s': %w", id, name, err)
			}
			ro[name] = value
		}
		cfg.Rules[id] = ro
	}
	return cfg, nil
}

func isNull(n *yaml.Node) bool {
	n = yamlscan.Root(n)
	return n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func optionValue(n *yaml.Node) (string, error) {
	n = yamlscan.Root(n)
	if n == nil {
		return "", nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "", nil
		}
		return n.Value, nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			s, ok := yamlscan.ScalarString(item)
			if !ok {
				return "", fmt.Errorf("list items must be scalars (line %d)", item.Line)
			}
			values = append(values, s)
		}
		return strings.Join(values, ","), nil
	default:
		return "", fmt.Errorf("unsupported value at line %d", n.Line)
	}
}

// LoadFile reads and parses the config file at path. A missing file is
// reported with an error satisfying errors.Is(err, os.ErrNotExist).
func LoadFile(fs billy.Filesystem, path string) (Config, error) {
	content, err := yamlscan.ReadText(fs, path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := ParseFile(content)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
