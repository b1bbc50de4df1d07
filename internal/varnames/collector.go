package varnames

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"

	"alcr/internal/inventory"
	"alcr/internal/log"
	"alcr/internal/playbook"
	"alcr/internal/yamlscan"
)

// roleVarFiles are tried in order inside each of a role's defaults and vars
// directories; the first one present is used.
var roleVarFiles = []string{"main.yml", "main.yaml", "main"}

// Collector aggregates variable names across sources. Its fields are set
// once and not modified afterwards.
type Collector struct {
	FS        billy.Filesystem
	Inventory string   // inventory file; empty when none is configured
	RolesPath []string // extra role search directories
}

// FromInventory returns the variables of the configured inventory file and
// of every host/group variable file reachable from it.
func (c *Collector) FromInventory() ([]Var, error) {
	if c.Inventory == "" {
		return nil, ErrNoInventory
	}

	vars, err := FromInventoryFile(c.FS, c.Inventory)
	if err != nil {
		return nil, err
	}

	files, err := inventory.VarFiles(c.FS, c.Inventory)
	if err != nil {
		return nil, err
	}
	fileVars, err := FromYAMLFiles(c.FS, files, "")
	if err != nil {
		return nil, err
	}
	return append(vars, fileVars...), nil
}

// RoleNames returns the literal role names the playbook references.
func RoleNames(fs billy.Filesystem, path string) ([]playbook.RoleRef, error) {
	pb, err := playbook.Load(fs, path)
	if err != nil {
		return nil, err
	}
	return pb.RoleNames(), nil
}

// FromRoleFiles returns the variables declared in the defaults and vars
// files of every role the playbook references. Roles are not expanded
// recursively; missing roles and files contribute nothing.
func (c *Collector) FromRoleFiles(path string) ([]Var, error) {
	pb, err := playbook.Load(c.FS, path)
	if err != nil {
		return nil, err
	}
	return c.roleVars(pb)
}

func (c *Collector) roleVars(pb *playbook.Playbook) ([]Var, error) {
	logger := log.WithComponent("varnames")
	var vars []Var
	for _, ref := range pb.RoleNames() {
		dir, ok := c.resolveRole(pb.Path, ref.Name)
		if !ok {
			logger.Debug().Str("playbook", pb.Path).Str("role", ref.Name).Msg("role not found in search path")
			continue
		}
		for _, sub := range []string{"defaults", "vars"} {
			file, ok := c.roleVarFile(filepath.Join(dir, sub))
			if !ok {
				logger.Debug().Str("role", ref.Name).Str("dir", sub).Msg("no main file")
				continue
			}
			v, err := FromYAMLFile(c.FS, file, "")
			if err != nil {
				return nil, err
			}
			vars = append(vars, v...)
		}
	}
	return vars, nil
}

// FromPlaybookFile returns the variables of the playbook's play vars, its
// literal vars_files and the role files of every referenced role.
func (c *Collector) FromPlaybookFile(path string) ([]Var, error) {
	pb, err := playbook.Load(c.FS, path)
	if err != nil {
		return nil, err
	}
	return c.FromPlaybook(pb)
}

// FromPlaybook is FromPlaybookFile for an already loaded playbook; the
// playbook file itself is not read again.
func (c *Collector) FromPlaybook(pb *playbook.Playbook) ([]Var, error) {
	var vars []Var
	for _, play := range pb.Plays {
		vars = append(vars, toVars(pb.Path, play.VarKeys("vars"))...)
	}

	fileVars, err := c.varsFileVars(pb)
	if err != nil {
		return nil, err
	}
	vars = append(vars, fileVars...)

	roleVars, err := c.roleVars(pb)
	if err != nil {
		return nil, err
	}
	return append(vars, roleVars...), nil
}

func (c *Collector) varsFileVars(pb *playbook.Playbook) ([]Var, error) {
	base := filepath.Dir(pb.Path)
	var vars []Var
	for _, play := range pb.Plays {
		for _, item := range yamlscan.Items(yamlscan.Lookup(play.Node, "vars_files")) {
			name, ok := yamlscan.ScalarString(item)
			if !ok || strings.Contains(name, "{{") {
				continue
			}
			file := name
			if !filepath.IsAbs(file) {
				file = filepath.Join(base, file)
			}
			if !yamlscan.Exists(c.FS, file) {
				continue
			}
			v, err := FromYAMLFile(c.FS, file, "")
			if err != nil {
				return nil, err
			}
			vars = append(vars, v...)
		}
	}
	return vars, nil
}

// resolveRole finds the directory of the named role. A name containing a
// path separator is first tried relative to the playbook directory.
func (c *Collector) resolveRole(playbookPath, name string) (string, bool) {
	base := filepath.Dir(playbookPath)

	var candidates []string
	if strings.ContainsRune(name, '/') {
		if filepath.IsAbs(name) {
			candidates = append(candidates, name)
		} else {
			candidates = append(candidates, filepath.Join(base, name))
		}
	}
	candidates = append(candidates, filepath.Join(base, "roles", name))
	for _, dir := range c.RolesPath {
		if dir != "" {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, dir := range candidates {
		if info, err := c.FS.Stat(dir); err == nil && info.IsDir() {
			return dir, true
		}
	}
	return "", false
}

func (c *Collector) roleVarFile(dir string) (string, bool) {
	for _, name := range roleVarFiles {
		p := filepath.Join(dir, name)
		if yamlscan.Exists(c.FS, p) {
			return p, true
		}
	}
	return "", false
}
