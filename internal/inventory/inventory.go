// Package inventory extracts variable declarations from Ansible inventory
// sources: INI or YAML inventory files and the host_vars/group_vars trees
// next to them.
package inventory

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"

	"alcr/internal/yamlscan"
)

type sectionKind int

const (
	sectionHosts sectionKind = iota
	sectionVars
	sectionChildren
)

// varFileExts are the extensions ansible loads from host_vars and group_vars.
var varFileExts = map[string]bool{
	"":      true,
	".yml":  true,
	".yaml": true,
	".json": true,
}

// IsYAML reports whether the inventory at path uses the YAML format.
func IsYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

// Vars returns every variable declared inline in the inventory file at path.
func Vars(fs billy.Filesystem, path string) ([]yamlscan.Key, error) {
	content, err := yamlscan.ReadText(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	if IsYAML(path) {
		return ParseYAML(path, content)
	}
	return ParseINI(content), nil
}

// ParseINI scans INI-style inventory content for key=value assignments on
// host lines and in [group:vars] sections.
func ParseINI(content []byte) []yamlscan.Key {
	var keys []yamlscan.Key
	kind := sectionHosts

	for i, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			kind = parseSection(line[1 : len(line)-1])
			continue
		}

		switch kind {
		case sectionVars:
			idx := strings.Index(line, "=")
			if idx <= 0 {
				continue
			}
			if name := strings.TrimSpace(line[:idx]); name != "" {
				keys = append(keys, yamlscan.Key{Name: name, Line: i + 1})
			}
		case sectionHosts:
			tokens := splitFields(line)
			if len(tokens) == 0 {
				continue
			}
			// tokens[0] is the host pattern.
			for _, tok := range tokens[1:] {
				idx := strings.Index(tok, "=")
				if idx <= 0 {
					continue
				}
				keys = append(keys, yamlscan.Key{Name: tok[:idx], Line: i + 1})
			}
		}
	}

	return keys
}

func parseSection(header string) sectionKind {
	_, suffix, found := strings.Cut(header, ":")
	if !found {
		return sectionHosts
	}
	switch suffix {
	case "vars":
		return sectionVars
	case "children":
		return sectionChildren
	default:
		return sectionHosts
	}
}

// splitFields splits a host line on whitespace. Quoted runs are kept
// together and a '#' starting a field ends the line.
func splitFields(line string) []string {
	var (
		fields []string
		cur    strings.Builder
		quote  rune
		inTok  bool
	)

	for _, r := range line {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			inTok = true
			cur.WriteRune(r)
		case r == ' ' || r == '\t':
			if inTok {
				fields = append(fields, cur.String())
				cur.Reset()
				inTok = false
			}
		case r == '#' && !inTok:
			return fields
		default:
			inTok = true
			cur.WriteRune(r)
		}
	}
	if inTok {
		fields = append(fields, cur.String())
	}
	return fields
}

// ParseYAML collects the keys of every group vars mapping and every host
// vars mapping in a YAML inventory, recursing into children.
func ParseYAML(path string, content []byte) ([]yamlscan.Key, error) {
	root, err := yamlscan.Parse(path, content)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("invalid inventory %s: top level must be a mapping of groups", path)
	}

	var keys []yamlscan.Key
	for i := 1; i < len(root.Content); i += 2 {
		keys = appendGroupVars(keys, yamlscan.Root(root.Content[i]))
	}
	return keys, nil
}

func appendGroupVars(keys []yamlscan.Key, group *yaml.Node) []yamlscan.Key {
	if group == nil || group.Kind != yaml.MappingNode {
		return keys
	}

	keys = append(keys, yamlscan.TopLevelKeys(yamlscan.Lookup(group, "vars"))...)

	if hosts := yamlscan.Lookup(group, "hosts"); hosts != nil && hosts.Kind == yaml.MappingNode {
		for i := 1; i < len(hosts.Content); i += 2 {
			keys = append(keys, yamlscan.TopLevelKeys(hosts.Content[i])...)
		}
	}

	if children := yamlscan.Lookup(group, "children"); children != nil && children.Kind == yaml.MappingNode {
		for i := 1; i < len(children.Content); i += 2 {
			keys = appendGroupVars(keys, yamlscan.Root(children.Content[i]))
		}
	}
	return keys
}

// VarFiles lists the host and group variable files reachable from the
// inventory file at path, sorted.
func VarFiles(fs billy.Filesystem, path string) ([]string, error) {
	dir := filepath.Dir(path)

	var files []string
	for _, sub := range []string{"host_vars", "group_vars"} {
		matches, err := yamlscan.Glob(fs, filepath.Join(dir, sub), "**")
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if varFileExts[strings.ToLower(filepath.Ext(m))] {
				files = append(files, m)
			}
		}
	}
	return files, nil
}
