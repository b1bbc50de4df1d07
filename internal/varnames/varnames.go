// Package varnames collects the variable names a playbook run can see:
// host and group variable files, inventory files, play vars and the
// defaults and vars files of referenced roles.
//
// Every function is a pure read of the filesystem it is given; calling one
// twice on unchanged files returns the same names.
package varnames

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-billy/v5"

	"alcr/internal/inventory"
	"alcr/internal/yamlscan"
)

// ErrNoFiles is returned when an explicitly requested pattern matches nothing.
var ErrNoFiles = errors.New("no data files")

// ErrNoInventory is returned when inventory names are requested but no
// inventory is configured.
var ErrNoInventory = errors.New("no inventory configured")

// Var is a declared variable name and where it was declared.
type Var struct {
	Name string
	Path string
	Line int
}

// NameSet is a set of variable names.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Names returns the set of names declared by vars.
func Names(vars []Var) NameSet {
	s := make(NameSet, len(vars))
	for _, v := range vars {
		s[v.Name] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union returns a new set holding the names of s and other.
func (s NameSet) Union(other NameSet) NameSet {
	out := make(NameSet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ListFiles returns the sorted files below root matching pattern. Matching
// nothing is an error naming the pattern.
func ListFiles(fs billy.Filesystem, root, pattern string) ([]string, error) {
	files, err := yamlscan.Glob(fs, root, pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	return files, nil
}

// FromYAMLFile returns the variables declared in the YAML file at path. With
// an empty key these are the file's top-level keys; otherwise they are the
// top-level keys of the mapping under key, in the file itself or in each
// play of a playbook.
func FromYAMLFile(fs billy.Filesystem, path, key string) ([]Var, error) {
	root, err := yamlscan.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	if key == "" {
		return toVars(path, yamlscan.TopLevelKeys(root)), nil
	}

	if items := yamlscan.Items(root); items != nil {
		var vars []Var
		for _, item := range items {
			vars = append(vars, toVars(path, yamlscan.TopLevelKeys(yamlscan.Lookup(item, key)))...)
		}
		return vars, nil
	}
	return toVars(path, yamlscan.TopLevelKeys(yamlscan.Lookup(root, key))), nil
}

// FromYAMLFiles concatenates FromYAMLFile over paths.
func FromYAMLFiles(fs billy.Filesystem, paths []string, key string) ([]Var, error) {
	var vars []Var
	for _, p := range paths {
		v, err := FromYAMLFile(fs, p, key)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v...)
	}
	return vars, nil
}

// FromInventoryFile returns the variables assigned inline in an inventory.
func FromInventoryFile(fs billy.Filesystem, path string) ([]Var, error) {
	keys, err := inventory.Vars(fs, path)
	if err != nil {
		return nil, err
	}
	return toVars(path, keys), nil
}

func toVars(path string, keys []yamlscan.Key) []Var {
	if len(keys) == 0 {
		return nil
	}
	vars := make([]Var, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, Var{Name: k.Name, Path: path, Line: k.Line})
	}
	return vars
}
