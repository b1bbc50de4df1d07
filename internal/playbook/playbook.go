// Package playbook gives typed access to the parts of a playbook or task
// file the lint rules inspect: plays, their vars and roles, and tasks.
package playbook

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"

	"alcr/internal/yamlscan"
)

// Kind classifies a YAML file.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlaybook
	KindTasks
)

func (k Kind) String() string {
	switch k {
	case KindPlaybook:
		return "playbook"
	case KindTasks:
		return "tasks"
	default:
		return "unknown"
	}
}

// Playbook is a parsed playbook or task file.
type Playbook struct {
	Path  string
	Kind  Kind
	Plays []Play
	tasks []Task // top-level items of a task file
}

// Play is one item of a playbook.
type Play struct {
	Node *yaml.Node
	Line int
}

// Task is a single task; blocks are flattened away.
type Task struct {
	Node *yaml.Node
	Line int
}

// RoleRef is a literal role name referenced from a play or task.
type RoleRef struct {
	Name string
	Line int
}

// playKeys mark a sequence item as a play rather than a task.
var playKeys = []string{"hosts", "import_playbook", "ansible.builtin.import_playbook"}

// taskListKeys are the play keys holding task lists, in execution order.
var taskListKeys = []string{"pre_tasks", "tasks", "post_tasks", "handlers"}

var blockKeys = []string{"block", "rescue", "always"}

// Load reads and classifies the YAML file at path.
func Load(fs billy.Filesystem, path string) (*Playbook, error) {
	root, err := yamlscan.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return FromNode(path, root), nil
}

// Parse classifies YAML content. path is recorded but never read.
func Parse(path string, content []byte) (*Playbook, error) {
	root, err := yamlscan.Parse(path, content)
	if err != nil {
		return nil, err
	}
	return FromNode(path, root), nil
}

// FromNode classifies an already parsed document root.
func FromNode(path string, root *yaml.Node) *Playbook {
	pb := &Playbook{Path: path}

	items := yamlscan.Items(root)
	if items == nil {
		return pb
	}

	for _, item := range items {
		if isPlay(item) {
			pb.Kind = KindPlaybook
			break
		}
	}

	if pb.Kind == KindPlaybook {
		for _, item := range items {
			if item != nil && item.Kind == yaml.MappingNode {
				pb.Plays = append(pb.Plays, Play{Node: item, Line: item.Line})
			}
		}
		return pb
	}

	pb.Kind = KindTasks
	pb.tasks = flattenTasks(nil, items)
	return pb
}

func isPlay(n *yaml.Node) bool {
	for _, k := range playKeys {
		if yamlscan.Lookup(n, k) != nil {
			return true
		}
	}
	return false
}

// Tasks returns every task of the file: all task lists of all plays for a
// playbook, or the items of a task file. Blocks are flattened.
func (pb *Playbook) Tasks() []Task {
	if pb.Kind == KindTasks {
		return pb.tasks
	}
	var tasks []Task
	for _, play := range pb.Plays {
		tasks = append(tasks, play.Tasks()...)
	}
	return tasks
}

// RoleNames returns the literal role names referenced by the file, from play
// `roles:` lists and from import_role/include_role tasks, without duplicates.
func (pb *Playbook) RoleNames() []RoleRef {
	var refs []RoleRef
	for _, play := range pb.Plays {
		refs = append(refs, play.Roles()...)
	}
	for _, task := range pb.Tasks() {
		if ref, ok := task.IncludedRole(); ok {
			refs = append(refs, ref)
		}
	}

	seen := make(map[string]bool)
	unique := refs[:0]
	for _, r := range refs {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		unique = append(unique, r)
	}
	return unique
}

// VarKeys returns the top-level keys of the mapping stored under key.
func (p Play) VarKeys(key string) []yamlscan.Key {
	return yamlscan.TopLevelKeys(yamlscan.Lookup(p.Node, key))
}

// Roles returns the literal role names of the play's roles list.
func (p Play) Roles() []RoleRef {
	var refs []RoleRef
	for _, item := range yamlscan.Items(yamlscan.Lookup(p.Node, "roles")) {
		if item == nil {
			continue
		}
		name, ok := yamlscan.ScalarString(item)
		if !ok {
			name, ok = yamlscan.ScalarString(yamlscan.Lookup(item, "role"))
		}
		if !ok {
			name, ok = yamlscan.ScalarString(yamlscan.Lookup(item, "name"))
		}
		if !ok || !isLiteral(name) {
			continue
		}
		refs = append(refs, RoleRef{Name: name, Line: item.Line})
	}
	return refs
}

// Tasks returns the play's tasks from every task list, blocks flattened.
func (p Play) Tasks() []Task {
	var tasks []Task
	for _, key := range taskListKeys {
		tasks = flattenTasks(tasks, yamlscan.Items(yamlscan.Lookup(p.Node, key)))
	}
	return tasks
}

func flattenTasks(tasks []Task, items []*yaml.Node) []Task {
	for _, item := range items {
		if item == nil || item.Kind != yaml.MappingNode {
			continue
		}
		if yamlscan.Lookup(item, "block") != nil {
			for _, key := range blockKeys {
				tasks = flattenTasks(tasks, yamlscan.Items(yamlscan.Lookup(item, key)))
			}
			continue
		}
		tasks = append(tasks, Task{Node: item, Line: item.Line})
	}
	return tasks
}

// Name returns the task's name, if any.
func (t Task) Name() string {
	name, _ := yamlscan.ScalarString(yamlscan.Lookup(t.Node, "name"))
	return name
}

// Module returns the module the task invokes, or "" when none is found.
func (t Task) Module() string {
	name, _ := t.module()
	return name
}

func (t Task) module() (string, *yaml.Node) {
	n := t.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		value := yamlscan.Root(n.Content[i+1])

		if key == "action" || key == "local_action" {
			return actionModule(value), value
		}
		if isTaskKeyword(key) {
			continue
		}
		return key, value
	}
	return "", nil
}

func actionModule(value *yaml.Node) string {
	if s, ok := yamlscan.ScalarString(value); ok {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return ""
		}
		return fields[0]
	}
	s, _ := yamlscan.ScalarString(yamlscan.Lookup(value, "module"))
	return s
}

// IncludedRole returns the role referenced by an import_role or include_role
// task.
func (t Task) IncludedRole() (RoleRef, bool) {
	module, args := t.module()
	switch ShortName(module) {
	case "import_role", "include_role":
	default:
		return RoleRef{}, false
	}

	name, ok := yamlscan.ScalarString(yamlscan.Lookup(args, "name"))
	if !ok {
		if s, isScalar := yamlscan.ScalarString(args); isScalar {
			name, ok = freeFormArg(s, "name")
		}
	}
	if !ok || !isLiteral(name) {
		return RoleRef{}, false
	}
	return RoleRef{Name: name, Line: t.Line}, true
}

// ShortName strips the ansible.builtin. and ansible.legacy. prefixes.
func ShortName(module string) string {
	for _, prefix := range []string{"ansible.builtin.", "ansible.legacy."} {
		if strings.HasPrefix(module, prefix) {
			return strings.TrimPrefix(module, prefix)
		}
	}
	return module
}

// freeFormArg extracts key from "k1=v1 k2=v2" module arguments.
func freeFormArg(s, key string) (string, bool) {
	for _, field := range strings.Fields(s) {
		k, v, found := strings.Cut(field, "=")
		if found && k == key {
			return strings.Trim(v, `"'`), true
		}
	}
	return "", false
}

func isLiteral(name string) bool {
	return name != "" && !strings.Contains(name, "{{")
}

// String implements fmt.Stringer for debugging output.
func (r RoleRef) String() string {
	return fmt.Sprintf("%s (line %d)", r.Name, r.Line)
}
