package lint

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"alcr/internal/config"
	"alcr/internal/rules"
)

func project(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	files := map[string]string{
		"/proj/site.yml": `- hosts: all
  vars:
    BadVar: 1
  roles:
    - web
  tasks:
    - shell: echo hi
`,
		"/proj/other.yml": `- hosts: db
  roles:
    - web
`,
		"/proj/roles/web/defaults/main.yml": "WEB_PORT: 80\n",
		"/proj/roles/web/tasks/main.yml":    "- raw: uptime\n- debug: msg=ok\n",
		"/proj/inventory/hosts":             "[all]\nh1 x=1\n",
		"/proj/README.md":                   "# readme\n",
	}
	for p, c := range files {
		require.NoError(t, util.WriteFile(fs, p, []byte(c), 0o644))
	}
	return fs
}

func newRunner(t *testing.T, fs billy.Filesystem) *Runner {
	t.Helper()
	reg, err := rules.FromConfig(config.Config{})
	require.NoError(t, err)
	return &Runner{FS: fs, Rules: reg.All()}
}

func TestRun_Directory(t *testing.T) {
	r := newRunner(t, project(t))

	result, err := r.Run(context.Background(), []string{"/proj"})
	require.NoError(t, err)

	// defaults/main.yml is neither a playbook nor a task file.
	assert.Equal(t, 3, result.Files)

	var got []string
	for _, v := range result.Violations {
		got = append(got, v.Path+":"+v.Subject)
	}
	// WEB_PORT is reported once although both playbooks reference the role.
	assert.Equal(t, []string{
		"/proj/roles/web/defaults/main.yml:WEB_PORT",
		"/proj/roles/web/tasks/main.yml:raw",
		"/proj/site.yml:BadVar",
		"/proj/site.yml:shell",
	}, got)
}

func TestRun_SelectedRule(t *testing.T) {
	fs := project(t)
	reg, err := rules.FromConfig(config.Config{})
	require.NoError(t, err)
	selected, err := reg.Select([]string{rules.NameBlockedModules})
	require.NoError(t, err)

	r := &Runner{FS: fs, Rules: selected}
	result, err := r.Run(context.Background(), []string{"/proj/site.yml"})
	require.NoError(t, err)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, "shell", result.Violations[0].Subject)
	assert.Equal(t, 1, result.Files)
}

func TestRun_Accepted(t *testing.T) {
	fs := project(t)
	r := newRunner(t, fs)

	first, err := r.Run(context.Background(), []string{"/proj"})
	require.NoError(t, err)
	require.NotEmpty(t, first.Violations)

	r.Accepted = map[string]struct{}{first.Violations[0].Fingerprint(): {}}
	second, err := r.Run(context.Background(), []string{"/proj"})
	require.NoError(t, err)

	assert.Equal(t, first.Violations[:1], second.Suppressed)
	assert.Equal(t, first.Violations[1:], second.Violations)
}

func TestRun_CollectsErrors(t *testing.T) {
	fs := project(t)
	require.NoError(t, util.WriteFile(fs, "/proj/broken.yml", []byte("- hosts: [unclosed\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/proj/broken2.yaml", []byte("{{{"), 0o644))

	r := newRunner(t, fs)
	result, err := r.Run(context.Background(), []string{"/proj"})

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	// The remaining files are still linted.
	assert.Len(t, result.Violations, 4)
}

func TestRun_MissingPath(t *testing.T) {
	r := newRunner(t, project(t))
	_, err := r.Run(context.Background(), []string{"/nowhere"})
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	r := newRunner(t, project(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, []string{"/proj"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Files)
}

func TestRun_RelativeToBase(t *testing.T) {
	r := newRunner(t, project(t))
	r.Base = "/proj"

	result, err := r.Run(context.Background(), []string{"/proj/site.yml"})
	require.NoError(t, err)

	var paths []string
	for _, v := range result.Violations {
		paths = append(paths, v.Path)
	}
	assert.Equal(t, []string{"roles/web/defaults/main.yml", "site.yml", "site.yml"}, paths)
}
