package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func rels(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Rel)
	}
	return out
}

func TestDiscover_IncludesExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/a.py":                "",
		"pkg/b.pyi":               "",
		"pkg/__pycache__/a.pyc":   "",
		"docs/guide.md":           "",
		"dist/out.py":             "",
		"main.go":                 "",
		".venv/lib/site.py":       "",
		".git/HEAD":               "ref",
		"notes.txt":               "",
		"pkg/sub/deep/module.py":  "",
		"pkg/sub/deep/ignored.md": "",
	})

	files, err := Discover([]string{root}, Options{
		Includes: []string{"**/*.py", "**/*.md", "*.go"},
		Excludes: []string{".venv/**", "**/__pycache__/**", "dist/**", "**/*.pyi", "pkg/sub/**/*.md"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"docs/guide.md", "main.go", "pkg/a.py", "pkg/sub/deep/module.py"}, rels(files))
	for _, f := range files {
		assert.Equal(t, root, f.Root)
		assert.True(t, filepath.IsAbs(f.Abs))
	}
}

func TestDiscover_DefaultIncludesEverythingButGit(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":       "",
		"b/c.py":      "",
		".git/HEAD":   "",
		".git/x/y.py": "",
	})

	files, err := Discover([]string{root}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b/c.py"}, rels(files))
}

func TestDiscover_Gitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":     "# build output\nbuild/\n*.log\n!keep.log\n",
		"build/gen.py":   "",
		"app.py":         "",
		"debug.log":      "",
		"keep.log":       "",
		"sub/.gitignore": "local.py\n",
		"sub/local.py":   "",
		"sub/shared.py":  "",
		"other/local.py": "",
	})

	files, err := Discover([]string{root}, Options{RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "app.py", "keep.log", "other/local.py", "sub/.gitignore", "sub/shared.py"}, rels(files))

	files, err = Discover([]string{root}, Options{})
	require.NoError(t, err)
	assert.Len(t, files, 9)
}

func TestDiscover_FileRootAndDedupe(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/x.py": "", "src/y.py": ""})
	file := filepath.Join(root, "src", "x.py")

	files, err := Discover([]string{filepath.Join(root, "src"), file}, Options{Includes: []string{"**/*.py"}})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, file, files[0].Abs)
	assert.Equal(t, "x.py", files[0].DisplayPath())

	only, err := Discover([]string{file}, Options{Includes: []string{"**/*.md"}})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, filepath.Join(root, "src"), only[0].Root)
}

func TestDiscover_SortedAcrossRoots(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"b/z.py": "", "a/y.py": "", "a/x.py": ""})

	files, err := Discover([]string{filepath.Join(root, "b"), filepath.Join(root, "a")}, Options{})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []string{"x.py", "y.py", "z.py"}, rels(files))
}

func TestDiscover_Errors(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "missing")}, Options{})
	require.ErrorIs(t, err, ErrRootNotFound)

	_, err = Discover([]string{t.TempDir()}, Options{Excludes: []string{"[unclosed"}})
	require.ErrorIs(t, err, ErrInvalidPattern)
}
