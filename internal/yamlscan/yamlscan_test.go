package yamlscan

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTopLevelKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Key
	}{
		{
			name:    "flat mapping",
			content: "foo_1: 1\nBAR_baz: x\n",
			want:    []Key{{Name: "foo_1", Line: 1}, {Name: "BAR_baz", Line: 2}},
		},
		{
			name:    "nested values are not recursed",
			content: "outer:\n  inner: 1\n  deeper:\n    x: 2\n",
			want:    []Key{{Name: "outer", Line: 1}},
		},
		{
			name:    "merge keys below the top level are not recursed",
			content: "base: &b\n  a: 1\nchild:\n  <<: *b\n",
			want:    []Key{{Name: "base", Line: 1}, {Name: "child", Line: 3}},
		},
		{
			name:    "merged alias keys are expanded",
			content: "base: &b\n  a: 1\n<<: *b\nc: 2\n",
			want:    []Key{{Name: "base", Line: 1}, {Name: "a", Line: 3}, {Name: "c", Line: 4}},
		},
		{
			name:    "inline merged mapping",
			content: "<<: {BadMerged: 1}\nok: 2\n",
			want:    []Key{{Name: "BadMerged", Line: 1}, {Name: "ok", Line: 2}},
		},
		{
			name:    "sequence of merged aliases, explicit keys win",
			content: "x: &x\n  a: 1\n  b: 2\ny: &y\n  b: 3\n  c: 4\n<<: [*x, *y]\na: 5\n",
			want: []Key{
				{Name: "x", Line: 1},
				{Name: "y", Line: 4},
				{Name: "b", Line: 7},
				{Name: "c", Line: 7},
				{Name: "a", Line: 8},
			},
		},
		{
			name:    "sequence has no keys",
			content: "- a\n- b\n",
			want:    nil,
		},
		{
			name:    "scalar has no keys",
			content: "just a string\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse("test.yml", []byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, TopLevelKeys(n))
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	n, err := Parse("empty.yml", []byte(""))
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Nil(t, TopLevelKeys(n))
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse("bad.yml", []byte("foo: {unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yml")
}

func TestLookupAndItems(t *testing.T) {
	n, err := Parse("pb.yml", []byte("- hosts: all\n  vars:\n    a: 1\n- hosts: web\n"))
	require.NoError(t, err)

	plays := Items(n)
	require.Len(t, plays, 2)

	hosts, ok := ScalarString(Lookup(plays[1], "hosts"))
	assert.True(t, ok)
	assert.Equal(t, "web", hosts)

	vars := Lookup(plays[0], "vars")
	require.NotNil(t, vars)
	assert.Equal(t, yaml.MappingNode, vars.Kind)
	assert.Nil(t, Lookup(plays[1], "vars"))
	assert.Nil(t, Items(vars))
}

func TestReadFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/proj/vars.yml", []byte("a: 1\nb: 2\n"), 0o644))

	n, err := ReadFile(fs, "/proj/vars.yml")
	require.NoError(t, err)
	assert.Len(t, TopLevelKeys(n), 2)

	_, err = ReadFile(fs, "/proj/missing.yml")
	assert.Error(t, err)
}

func TestGlob(t *testing.T) {
	fs := memfs.New()
	for _, p := range []string{
		"/proj/site.yml",
		"/proj/roles/web/tasks/main.yml",
		"/proj/roles/web/defaults/main.yaml",
		"/proj/README.md",
	} {
		require.NoError(t, util.WriteFile(fs, p, []byte("x: 1\n"), 0o644))
	}

	got, err := Glob(fs, "/proj", "**/*.{yml,yaml}")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/proj/roles/web/defaults/main.yaml",
		"/proj/roles/web/tasks/main.yml",
		"/proj/site.yml",
	}, got)

	got, err = Glob(fs, "/proj", "*.yml")
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/site.yml"}, got)

	got, err = Glob(fs, "/nowhere", "**")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Glob(fs, "/proj", "[")
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/r/defaults/main.yml", []byte("a: 1\n"), 0o644))

	assert.True(t, Exists(fs, "/r/defaults/main.yml"))
	assert.False(t, Exists(fs, "/r/defaults"))
	assert.False(t, Exists(fs, "/r/vars/main.yml"))
}
