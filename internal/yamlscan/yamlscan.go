// Package yamlscan provides the YAML structure scanning primitives the
// extractors build on. Every read goes through a billy.Filesystem so callers
// can scan an on-disk project or an in-memory one.
package yamlscan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// Key is a mapping key together with the line it was declared on.
type Key struct {
	Name string
	Line int
}

// ReadFile reads and parses a single YAML document. An empty file yields a
// nil node and no error.
func ReadFile(fs billy.Filesystem, path string) (*yaml.Node, error) {
	content, err := readAll(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(path, content)
}

// Parse parses YAML content. path is used for error messages only.
func Parse(path string, content []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return Root(&doc), nil
}

// Root unwraps document nodes and aliases.
func Root(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// TopLevelKeys returns the keys of a mapping node. Nested structures are not
// recursed into; anything but a mapping yields no keys. Merge keys ("<<")
// are expanded into the keys of the merged mappings, reported at the line
// of the merge value; keys set explicitly win over merged ones.
func TopLevelKeys(n *yaml.Node) []Key {
	return mappingKeys(n, make(map[*yaml.Node]bool))
}

func mappingKeys(n *yaml.Node, visiting map[*yaml.Node]bool) []Key {
	n = Root(n)
	if n == nil || n.Kind != yaml.MappingNode || visiting[n] {
		return nil
	}
	visiting[n] = true
	defer delete(visiting, n)

	explicit := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i]; k.Kind == yaml.ScalarNode && !isMerge(k) {
			explicit[k.Value] = true
		}
	}

	keys := make([]Key, 0, len(n.Content)/2)
	merged := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if k.Kind != yaml.ScalarNode {
			continue
		}
		if !isMerge(k) {
			keys = append(keys, Key{Name: k.Value, Line: k.Line})
			continue
		}
		for _, src := range mergeSources(n.Content[i+1]) {
			for _, mk := range mappingKeys(src, visiting) {
				if explicit[mk.Name] || merged[mk.Name] {
					continue
				}
				merged[mk.Name] = true
				keys = append(keys, Key{Name: mk.Name, Line: src.Line})
			}
		}
	}
	return keys
}

func isMerge(k *yaml.Node) bool {
	return k.Tag == "!!merge" || (k.Value == "<<" && k.Style == 0)
}

// mergeSources returns the nodes a merge value refers to: a single mapping
// or alias, or a sequence of them. The nodes keep their own line numbers.
func mergeSources(v *yaml.Node) []*yaml.Node {
	if v == nil {
		return nil
	}
	if v.Kind == yaml.SequenceNode {
		return v.Content
	}
	return []*yaml.Node{v}
}

// Lookup returns the value stored under key in a mapping node, or nil.
func Lookup(n *yaml.Node, key string) *yaml.Node {
	n = Root(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return Root(n.Content[i+1])
		}
	}
	return nil
}

// Items returns the elements of a sequence node, or nil.
func Items(n *yaml.Node) []*yaml.Node {
	n = Root(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	items := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		items = append(items, Root(c))
	}
	return items
}

// ScalarString returns the value of a scalar node and whether n was one.
func ScalarString(n *yaml.Node) (string, bool) {
	n = Root(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// Exists reports whether path names a regular file.
func Exists(fs billy.Filesystem, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}

// Glob returns the sorted paths below root whose root-relative, slash
// separated form matches the doublestar pattern.
func Glob(fs billy.Filesystem, root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %s", pattern)
	}

	if root == "" {
		root = "."
	}

	var matches []string
	err := util.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if doublestar.MatchUnvalidated(pattern, filepath.ToSlash(rel)) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(matches)
	return matches, nil
}

func readAll(fs billy.Filesystem, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}

// ReadText returns the raw content of a file.
func ReadText(fs billy.Filesystem, path string) ([]byte, error) {
	return readAll(fs, path)
}
