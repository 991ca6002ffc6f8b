package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/pack"
)

type testEnv struct {
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return &testEnv{dir: dir, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
}

func (e *testEnv) global() *Global {
	return &Global{Stdout: e.stdout, Stderr: e.stderr}
}

func (e *testEnv) path(rel string) string {
	return filepath.Join(e.dir, filepath.FromSlash(rel))
}

func (e *testEnv) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(e.path(rel))
	require.NoError(t, err)
	return string(data)
}

const funcSource = "def f():\n    return 1\n"

func TestParse_RenderIsDefault(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"-v", "src", "--out", "pack.md"})
	require.NoError(t, err)
	assert.Equal(t, "render <path>", ctx.Command())
	assert.True(t, cli.Verbose)
	require.Len(t, cli.Render.Paths, 1)
	assert.Equal(t, "src", filepath.Base(cli.Render.Paths[0]))

	ctx, err = parser.Parse([]string{"scan", "-I", "**/*.go", "-X", "vendor/**", "--engines", "."})
	require.NoError(t, err)
	assert.Equal(t, "scan <path>", ctx.Command())
	assert.Equal(t, []string{"**/*.go"}, cli.Scan.Includes)
	assert.Equal(t, []string{"vendor/**"}, cli.Scan.Excludes)
	assert.True(t, cli.Scan.Engines)
}

func TestRender_Stdout(t *testing.T) {
	env := newTestEnv(t, map[string]string{"src/a.py": funcSource})

	cmd := &RenderCmd{Paths: []string{env.path("src")}, Default: "sig"}
	require.NoError(t, cmd.Run(env.global(), &CLI{}))

	assert.Equal(t, "\n### a.py\n\n```python\ndef f():\n    # … body omitted (1 line)\n    ...\n\n```\n", env.stdout.String())
}

func TestRender_NoFiles(t *testing.T) {
	env := newTestEnv(t, map[string]string{"notes.txt": "hello\n"})

	cmd := &RenderCmd{Paths: []string{env.dir}}
	require.NoError(t, cmd.Run(env.global(), &CLI{}))
	assert.Equal(t, pack.EmptyPack, env.stdout.String())
}

func TestRender_OutManifestAndMetrics(t *testing.T) {
	env := newTestEnv(t, map[string]string{"src/a.py": funcSource, "src/b.md": "# B\n"})

	cmd := &RenderCmd{
		Paths:       []string{env.path("src")},
		Out:         env.path("out/pack.md"),
		Manifest:    env.path("out/manifest.yaml"),
		MetricsFile: env.path("out/metrics.prom"),
	}
	require.NoError(t, cmd.Run(env.global(), &CLI{}))

	assert.Empty(t, env.stdout.String())
	assert.Contains(t, env.read(t, "out/pack.md"), "### b.md\n\n```markdown\n# B\n\n```\n")

	m, err := pack.ReadManifest(env.path("out/manifest.yaml"))
	require.NoError(t, err)
	require.Len(t, m.Documents, 2)
	assert.Equal(t, "a.py", m.Documents[0].Path)

	prom := env.read(t, "out/metrics.prom")
	assert.Contains(t, prom, "promptpack_run_outcomes_total")
	assert.Contains(t, prom, `engine="markdown"`)
}

func TestRender_MetricsFileCreatesDirectory(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.py": funcSource})

	cmd := &RenderCmd{Paths: []string{env.dir}, MetricsFile: env.path("metrics/nested/run.prom")}
	require.NoError(t, cmd.Run(env.global(), &CLI{}))

	assert.Contains(t, env.stdout.String(), "### a.py")
	assert.Contains(t, env.read(t, "metrics/nested/run.prom"), "promptpack_run_outcomes_total")
}

func TestRender_ConfigFileIsPickedUp(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		DefaultConfigFile: "default: sig\noutput:\n  path: pack.md\n",
		"a.py":            funcSource,
	})

	cmd := &RenderCmd{Paths: []string{env.path("a.py")}}
	require.NoError(t, cmd.Run(env.global(), &CLI{}))
	assert.Contains(t, env.read(t, "pack.md"), "# … body omitted (1 line)")
}

func TestRender_WatchRequiresOut(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.py": funcSource})

	err := (&RenderCmd{Paths: []string{env.dir}, Watch: true}).Run(env.global(), &CLI{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestRender_InvalidConfig(t *testing.T) {
	env := newTestEnv(t, map[string]string{"bad.yaml": "default: squash\n"})

	err := (&RenderCmd{Paths: []string{env.dir}}).Run(env.global(), &CLI{Config: env.path("bad.yaml")})
	require.Error(t, err)
	assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestScan(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"a.py":        funcSource,
		"docs/b.md":   "# B\n",
		"pyproj.toml": "[x]\n",
		"c.txt":       "text\n",
	})

	cmd := &ScanCmd{Paths: []string{env.dir}}
	require.NoError(t, cmd.Run(env.global(), &CLI{}))
	assert.Equal(t, "a.py\ndocs/b.md\npyproj.toml\n", env.stdout.String())
	assert.Equal(t, "# total: 3\n", env.stderr.String())

	env.stdout.Reset()
	cmd = &ScanCmd{Paths: []string{env.dir}, Engines: true, Excludes: []string{"docs/**"}}
	require.NoError(t, cmd.Run(env.global(), &CLI{}))
	assert.Equal(t, "a.py\t[python]\npyproj.toml\t[-]\n", env.stdout.String())

	env.stdout.Reset()
	cmd = &ScanCmd{Paths: []string{env.dir}, Includes: []string{"**/*.go"}, Abs: true}
	require.NoError(t, cmd.Run(env.global(), &CLI{}))
	assert.Equal(t, "(no files found)\n", env.stdout.String())
}

func TestApply(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.py": funcSource, "b.md": "# B\n"})

	err := (&ApplyCmd{Paths: []string{env.dir}, Default: "sig"}).Run(env.global(), &CLI{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	require.NoError(t, (&ApplyCmd{Paths: []string{env.dir}, Default: "sig", DryRun: true}).Run(env.global(), &CLI{}))
	assert.Contains(t, env.stdout.String(), "a.py\t")
	assert.Contains(t, env.stderr.String(), "# would abbreviate: 1 file(s), 1 edit(s)")
	assert.Equal(t, funcSource, env.read(t, "a.py"))

	require.NoError(t, (&ApplyCmd{Paths: []string{env.dir}, Default: "sig", Yes: true}).Run(env.global(), &CLI{}))
	assert.Equal(t, "def f():\n    # … body omitted (1 line)\n    ...\n", env.read(t, "a.py"))
	assert.Equal(t, "# B\n", env.read(t, "b.md"))
}

func TestInit(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, (&InitCmd{}).Run(env.global(), &CLI{}))
	assert.Contains(t, env.stdout.String(), DefaultConfigFile)
	assert.Contains(t, env.read(t, DefaultConfigFile), "rules:")

	err := (&InitCmd{}).Run(env.global(), &CLI{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	require.NoError(t, (&InitCmd{Force: true}).Run(env.global(), &CLI{}))

	custom := env.path("conf/pp.yaml")
	require.NoError(t, (&InitCmd{}).Run(env.global(), &CLI{Config: custom}))
	assert.FileExists(t, custom)
}
