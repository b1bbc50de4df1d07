package rules

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcr/internal/config"
	"alcr/internal/playbook"
	"alcr/internal/policy"
)

func writeFiles(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for p, content := range files {
		require.NoError(t, util.WriteFile(fs, p, []byte(content), 0o644))
	}
	return fs
}

func target(t *testing.T, fs billy.Filesystem, path string) *Target {
	t.Helper()
	pb, err := playbook.Load(fs, path)
	require.NoError(t, err)
	return &Target{FS: fs, Playbook: pb}
}

func subjects(vs []Violation) []string {
	var out []string
	for _, v := range vs {
		out = append(out, v.Subject)
	}
	return out
}

func TestBlockedModules_Check(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/p/site.yml": `- hosts: all
  tasks:
    - name: ok
      command: ls
    - name: blocked
      shell: ls
    - block:
        - ansible.builtin.raw: uptime
    - include: other.yml
`,
	})

	rule := NewBlockedModules(policy.NewBlockedModules(nil))
	vs, err := rule.Check(target(t, fs, "/p/site.yml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"shell", "ansible.builtin.raw", "include"}, subjects(vs))
	assert.Equal(t, IDBlockedModules, vs[0].RuleID)
	assert.Equal(t, "/p/site.yml", vs[0].Path)
	assert.Equal(t, 5, vs[0].Line)
	assert.Equal(t, "module 'shell' is blocked", vs[0].Message)
}

func TestBlockedModules_TaskFile(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/r/tasks/main.yml": "- shell: ls\n- copy: src=a dest=b\n",
	})

	rule := NewBlockedModules(policy.NewBlockedModules([]string{"copy"}))
	vs, err := rule.Check(target(t, fs, "/r/tasks/main.yml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"copy"}, subjects(vs))
}

func TestBlockedModules_KeywordBeforeModule(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/p/site.yml": `- hosts: all
  tasks:
    - any_errors_fatal: true
      shell: ls
    - block:
        - run_once: true
          ansible.builtin.raw: uptime
      any_errors_fatal: true
`,
	})

	rule := NewBlockedModules(policy.NewBlockedModules(nil))
	vs, err := rule.Check(target(t, fs, "/p/site.yml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"shell", "ansible.builtin.raw"}, subjects(vs))
	assert.Equal(t, 3, vs[0].Line)
}

func TestVariablesNaming_Check(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/p/site.yml": `- hosts: all
  vars:
    good_name: 1
    BadName: 2
  roles:
    - web
`,
		"/p/roles/web/defaults/main.yml": "web_port: 80\nWEB_HOST: x\n",
	})

	naming, err := policy.NewNaming("", false)
	require.NoError(t, err)
	rule := NewVariablesNaming(naming, VariablesNamingOptions{})

	vs, err := rule.Check(target(t, fs, "/p/site.yml"))
	require.NoError(t, err)
	require.Len(t, vs, 2)

	assert.Equal(t, "BadName", vs[0].Subject)
	assert.Equal(t, "/p/site.yml", vs[0].Path)
	assert.Equal(t, 4, vs[0].Line)
	assert.Equal(t, "WEB_HOST", vs[1].Subject)
	assert.Equal(t, "/p/roles/web/defaults/main.yml", vs[1].Path)
	assert.Equal(t, 2, vs[1].Line)
}

func TestVariablesNaming_Inventory(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/p/site.yml":                        "- hosts: all\n  vars:\n    ok: 1\n",
		"/p/inv/hosts":                       "[all]\nlocalhost_0 BAZ_2=true\n",
		"/p/inv/host_vars/localhost_0.yml":   "foo_1: 1\nBAR_baz: 2\n",
		"/p/inv/group_vars/all/defaults.yml": "fine: 1\n",
	})

	naming, err := policy.NewNaming("", false)
	require.NoError(t, err)
	rule := NewVariablesNaming(naming, VariablesNamingOptions{Inventory: "/p/inv/hosts"})

	vs, err := rule.Check(target(t, fs, "/p/site.yml"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BAZ_2", "BAR_baz"}, subjects(vs))
}

func TestVariablesNaming_MissingInventory(t *testing.T) {
	fs := writeFiles(t, map[string]string{"/p/site.yml": "- hosts: all\n"})

	naming, _ := policy.NewNaming("", false)
	rule := NewVariablesNaming(naming, VariablesNamingOptions{Inventory: "/p/none"})

	_, err := rule.Check(target(t, fs, "/p/site.yml"))
	assert.Error(t, err)
}

func TestVariablesNaming_SkipsTaskFiles(t *testing.T) {
	fs := writeFiles(t, map[string]string{"/r/tasks/main.yml": "- set_fact:\n    BAD: 1\n"})

	naming, _ := policy.NewNaming("", false)
	vs, err := NewVariablesNaming(naming, VariablesNamingOptions{}).Check(target(t, fs, "/r/tasks/main.yml"))
	require.NoError(t, err)
	assert.Empty(t, vs)
}

// A policy built from an overriding pattern flags names the default accepts,
// and a fresh default policy is unaffected by it.
func TestVariablesNaming_PolicyOverride(t *testing.T) {
	fs := writeFiles(t, map[string]string{"/p/site.yml": "- hosts: all\n  vars:\n    foo: 1\n    ___xok: 2\n"})

	override, err := policy.NewNaming(`___x\w+`, false)
	require.NoError(t, err)
	vs, err := NewVariablesNaming(override, VariablesNamingOptions{}).Check(target(t, fs, "/p/site.yml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, subjects(vs))

	def, err := policy.NewNaming("", false)
	require.NoError(t, err)
	vs, err = NewVariablesNaming(def, VariablesNamingOptions{}).Check(target(t, fs, "/p/site.yml"))
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestVariablesNaming_MergedVars(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/p/site.yml": "- hosts: all\n  vars:\n    <<: {BadMerged: 1}\n    ok: 2\n",
	})

	naming, err := policy.NewNaming("", false)
	require.NoError(t, err)
	vs, err := NewVariablesNaming(naming, VariablesNamingOptions{}).Check(target(t, fs, "/p/site.yml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"BadMerged"}, subjects(vs))
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := FromConfig(config.Config{})
	require.NoError(t, err)

	byID, err := reg.Lookup(IDVariablesNaming)
	require.NoError(t, err)
	byName, err := reg.Lookup(NameVariablesNaming)
	require.NoError(t, err)
	assert.Same(t, byID, byName)

	_, err = reg.Lookup("no_such_rule")
	assert.True(t, errors.Is(err, ErrUnknownRule))

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, IDBlockedModules, all[0].ID())
	assert.Equal(t, IDVariablesNaming, all[1].ID())
}

func TestRegistry_Select(t *testing.T) {
	reg, err := FromConfig(config.Config{})
	require.NoError(t, err)

	sel, err := reg.Select(nil)
	require.NoError(t, err)
	assert.Len(t, sel, 2)

	sel, err = reg.Select([]string{NameBlockedModules, IDBlockedModules})
	require.NoError(t, err)
	require.Len(t, sel, 1)
	assert.Equal(t, IDBlockedModules, sel[0].ID())

	_, err = reg.Select([]string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownRule)
}

func TestRegistry_Duplicate(t *testing.T) {
	b := NewBlockedModules(policy.NewBlockedModules(nil))
	_, err := NewRegistry(b, b)
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Resolve(config.Config{}, KnownOptions, []string{
		config.EnvVarName(IDBlockedModules, config.OptBlockedModules) + "=command",
		config.EnvVarName(IDVariablesNaming, config.OptVarNameRE) + `=___x\w+`,
		config.EnvVarName(IDVariablesNaming, config.OptUseAnsible) + "=1",
	})

	reg, err := FromConfig(cfg)
	require.NoError(t, err)

	rule, err := reg.Lookup(IDBlockedModules)
	require.NoError(t, err)
	assert.Equal(t, []string{"command"}, rule.(*BlockedModules).Blocked().Names())

	rule, err = reg.Lookup(IDVariablesNaming)
	require.NoError(t, err)
	naming := rule.(*VariablesNaming).Policy()
	assert.Equal(t, `___x\w+`, naming.Pattern())
	assert.True(t, naming.UseAnsible())
}

func TestFromConfig_NullBlockedModulesKeepsDefault(t *testing.T) {
	cfg, err := config.ParseFile([]byte("rules:\n  custom_2020_1:\n    blocked_modules:\n"))
	require.NoError(t, err)

	reg, err := FromConfig(cfg)
	require.NoError(t, err)
	rule, err := reg.Lookup(IDBlockedModules)
	require.NoError(t, err)
	assert.Equal(t, policy.NewBlockedModules(nil).Names(), rule.(*BlockedModules).Blocked().Names())
	assert.True(t, rule.(*BlockedModules).Blocked().Blocked("shell"))
}

func TestFromConfig_InvalidPattern(t *testing.T) {
	cfg := config.Config{Rules: map[string]config.RuleOptions{
		IDVariablesNaming: {config.OptVarNameRE: "(bad"},
	}}
	_, err := FromConfig(cfg)
	assert.Error(t, err)
}

func TestViolation_Fingerprint(t *testing.T) {
	a := Violation{RuleID: "r", Path: "p", Line: 1, Subject: "s", Message: "m"}
	b := a
	b.Line = 10
	b.Message = "other"
	c := a
	c.Subject = "t"

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, a.Fingerprint())
}
