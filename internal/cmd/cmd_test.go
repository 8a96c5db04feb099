package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/wiggum/internal/exitcode"
	"github.com/felixgeelhaar/wiggum/internal/graph"
)

// executeCommand runs a fresh command tree with args and returns captured output
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("WIGGUM_RUNNER_NON_INTERACTIVE", "1")

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// writeWorkspace creates files (path -> content) under a new temp root
func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func scopeWorkspace(t *testing.T) string {
	return writeWorkspace(t, map[string]string{
		"wiggum.config.json":            `{"projects": ["packages/*"]}`,
		"packages/shared/package.json":  `{"name": "@scope/shared", "version": "1.0.0"}`,
		"packages/app/package.json":     `{"name": "@scope/app", "dependencies": {"@scope/shared": "workspace:*"}}`,
		"packages/legacy/package.json":  `{"name": "@scope/legacy"}`,
		"packages/not-a-project/README": "no manifest here",
	})
}

type graphOutput struct {
	Projects []struct {
		Name string `json:"name"`
		Root string `json:"root"`
	} `json:"projects"`
	Graph struct {
		TopologicalOrder []string     `json:"topologicalOrder"`
		Levels           [][]string   `json:"levels"`
		Edges            []graph.Edge `json:"edges"`
	} `json:"graph"`
	Plan []struct {
		Project string   `json:"project"`
		Command string   `json:"command"`
		Args    []string `json:"args"`
	} `json:"plan"`
}

func decode(t *testing.T, s string) graphOutput {
	t.Helper()
	var out graphOutput
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func TestRootCommand(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "wiggum", root.Use)

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "graph", "projects", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestGraphJSON(t *testing.T) {
	root := scopeWorkspace(t)

	stdout, _, err := executeCommand(t, "--root", root, "graph", "--json", "-p", "@scope/app")
	require.NoError(t, err)

	out := decode(t, stdout)
	assert.Equal(t, []string{"@scope/shared", "@scope/app"}, out.Graph.TopologicalOrder)
	assert.Equal(t, [][]string{{"@scope/shared"}, {"@scope/app"}}, out.Graph.Levels)
	assert.Equal(t, []graph.Edge{
		{From: "@scope/app", To: "@scope/shared", Reason: graph.ReasonManifestDependency},
	}, out.Graph.Edges)
}

func TestGraphJSONIsDeterministic(t *testing.T) {
	root := scopeWorkspace(t)

	first, _, err := executeCommand(t, "--root", root, "graph", "--json")
	require.NoError(t, err)
	second, _, err := executeCommand(t, "--root", root, "graph", "--json")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	out := decode(t, first)
	assert.Equal(t, [][]string{{"@scope/legacy", "@scope/shared"}, {"@scope/app"}}, out.Graph.Levels)
}

func TestProjectsSelection(t *testing.T) {
	root := scopeWorkspace(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"all in discovery order", nil, []string{"@scope/app", "@scope/legacy", "@scope/shared"}},
		{"exclusion", []string{"-p", "@scope/*,!@scope/legacy"}, []string{"@scope/app", "@scope/shared"}},
		{"explicit before pulled", []string{"-p", "@scope/app", "--with-dependencies"}, []string{"@scope/app", "@scope/shared"}},
		{"no expansion by default", []string{"-p", "@scope/app"}, []string{"@scope/app"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--root", root, "projects", "--json"}, tt.args...)
			stdout, _, err := executeCommand(t, args...)
			require.NoError(t, err)

			var names []string
			for _, p := range decode(t, stdout).Projects {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestProjectsEmptySelection(t *testing.T) {
	root := scopeWorkspace(t)

	_, _, err := executeCommand(t, "--root", root, "projects", "-p", "@other/*")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no projects match")
	assert.Equal(t, exitcode.GeneralError, exitcode.DetermineExitCode(err))
}

func TestRunDryRunJSON(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"wiggum.config.yaml": "projects:\n" +
			"  - packages/shared\n" +
			"  - root: packages/app\n" +
			"    args: [--coverage]\n",
		"packages/shared/package.json": `{"name": "@scope/shared"}`,
		"packages/app/package.json":    `{"name": "@scope/app", "devDependencies": {"@scope/shared": "workspace:^"}}`,
	})

	stdout, _, err := executeCommand(t, "--root", root, "run", "-p", "@scope/app", "--dry-run", "--json", "jest", "--ci")
	require.NoError(t, err)

	out := decode(t, stdout)
	require.Len(t, out.Projects, 2)
	assert.Equal(t, "@scope/app", out.Projects[0].Name)
	assert.Equal(t, "@scope/shared", out.Projects[1].Name)

	require.Len(t, out.Plan, 2)
	assert.Equal(t, "@scope/shared", out.Plan[0].Project)
	assert.Equal(t, []string{"--ci"}, out.Plan[0].Args)
	assert.Equal(t, "@scope/app", out.Plan[1].Project)
	assert.Equal(t, "jest", out.Plan[1].Command)
	assert.Equal(t, []string{"--ci", "--coverage"}, out.Plan[1].Args)
}

func TestRunDryRunSavesPlan(t *testing.T) {
	root := scopeWorkspace(t)

	_, _, err := executeCommand(t, "--root", root, "run", "--dry-run", "--plan-out", "out/plan.json", "tsc")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "out", "plan.json"))

	stdout, _, err := executeCommand(t, "--root", root, "run", "--dry-run", "--json", "--from-plan", "out/plan.json")
	require.NoError(t, err)
	out := decode(t, stdout)
	require.Len(t, out.Plan, 3)
	assert.Equal(t, "tsc", out.Plan[0].Command)
}

func TestInferredImportEdge(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"wiggum.config.json":        `{"projects": ["a", "b"]}`,
		"a/package.json":            `{"name": "a"}`,
		"a/src/index.ts":            "import '@scope/b'\n",
		"b/package.json":            `{"name": "@scope/b"}`,
		"b/src/index.ts":            "export const b = 1\n",
		"a/node_modules/x/index.js": "require('@scope/b')\n",
	})

	stdout, _, err := executeCommand(t, "--root", root, "graph", "--json")
	require.NoError(t, err)
	assert.Equal(t, []graph.Edge{
		{From: "a", To: "@scope/b", Reason: graph.ReasonInferredImport},
	}, decode(t, stdout).Graph.Edges)

	stdout, _, err = executeCommand(t, "--root", root, "projects", "--json", "-p", "a", "--with-dependencies")
	require.NoError(t, err)
	require.Len(t, decode(t, stdout).Projects, 2)

	stdout, _, err = executeCommand(t, "--root", root, "graph", "--json", "--no-infer-imports")
	require.NoError(t, err)
	assert.Empty(t, decode(t, stdout).Graph.Edges)
}

func TestCycleIsFatal(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"wiggum.config.json":          `{"projects": ["packages/*"]}`,
		"packages/a/package.json":     `{"name": "a", "dependencies": {"b": "workspace:*"}}`,
		"packages/b/package.json":     `{"name": "b", "dependencies": {"a": "workspace:*"}}`,
		"node_modules/.bin/fake-tool": "#!/bin/sh\necho started > started.txt\n",
	})

	for _, args := range [][]string{
		{"--root", root, "graph"},
		{"--root", root, "run", "fake-tool"},
	} {
		_, _, err := executeCommand(t, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Circular project dependencies detected: a, b")
		assert.Equal(t, exitcode.GeneralError, exitcode.DetermineExitCode(err))
	}
	assert.NoFileExists(t, filepath.Join(root, "packages", "a", "started.txt"))
	assert.NoFileExists(t, filepath.Join(root, "packages", "b", "started.txt"))
}

func TestInferredCycleIsFatalForEveryCommand(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"wiggum.config.json": `{"projects": ["a", "b"]}`,
		"a/package.json":     `{"name": "a"}`,
		"a/src/index.ts":     "import 'b'\n",
		"b/package.json":     `{"name": "b"}`,
		"b/src/index.ts":     "import 'a'\n",
	})

	for _, args := range [][]string{
		{"--root", root, "projects"},
		{"--root", root, "graph"},
		{"--root", root, "run", "--dry-run", "tsc"},
	} {
		_, _, err := executeCommand(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "Circular project dependencies detected: a, b")
	}

	_, _, err := executeCommand(t, "--root", root, "projects", "--no-infer-imports")
	require.NoError(t, err)
}

func TestRunFromStalePlanIsRejected(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"wiggum.config.json":          `{"projects": ["packages/*"]}`,
		"packages/a/package.json":     `{"name": "a"}`,
		"packages/b/package.json":     `{"name": "b"}`,
		"node_modules/.bin/fake-tool": "#!/bin/sh\necho started > started.txt\n",
	})

	_, _, err := executeCommand(t, "--root", root, "run", "--dry-run", "--plan-out", "plan.json", "fake-tool")
	require.NoError(t, err)

	// a now depends on b, which the saved plan runs in the same level
	require.NoError(t, os.WriteFile(filepath.Join(root, "packages", "a", "package.json"),
		[]byte(`{"name": "a", "dependencies": {"b": "workspace:*"}}`), 0o644))

	_, _, err = executeCommand(t, "--root", root, "run", "--from-plan", "plan.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLAN-001")
	assert.Contains(t, err.Error(), "runs a at level 0 but its dependency b at level 0")
	assert.NoFileExists(t, filepath.Join(root, "packages", "a", "started.txt"))
	assert.NoFileExists(t, filepath.Join(root, "packages", "b", "started.txt"))
}

func TestRunFromPlanRejectsProjectFlag(t *testing.T) {
	root := scopeWorkspace(t)

	_, _, err := executeCommand(t, "--root", root, "run", "--dry-run", "--plan-out", "plan.json", "tsc")
	require.NoError(t, err)

	_, _, err = executeCommand(t, "--root", root, "run", "-p", "@scope/app", "--from-plan", "plan.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not pass --project")
}

func TestDuplicateProjectName(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"wiggum.config.json": `{"projects": ["one", "two"]}`,
		"one/package.json":   `{"name": "same"}`,
		"two/package.json":   `{"name": "same"}`,
	})

	_, _, err := executeCommand(t, "--root", root, "projects")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate project name "same"`)
}

func TestMissingConfig(t *testing.T) {
	root := t.TempDir()

	_, _, err := executeCommand(t, "--root", root, "graph")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no workspace config found")
}

func TestRunFailingTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}

	root := writeWorkspace(t, map[string]string{
		"wiggum.config.json":        `{"projects": ["packages/*"]}`,
		"packages/app/package.json": `{"name": "app"}`,
	})
	tool := filepath.Join(root, "node_modules", ".bin", "fake-tool")
	require.NoError(t, os.MkdirAll(filepath.Dir(tool), 0o755))
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\necho 'runner stdout'\necho 'runner stderr' >&2\nexit 2\n"), 0o755))

	stdout, stderr, err := executeCommand(t, "--root", root, "run", "--no-color", "fake-tool")
	require.Error(t, err)
	assert.Equal(t, exitcode.GeneralError, exitcode.DetermineExitCode(err))

	assert.Contains(t, stdout, "[runner] fake-tool -> app")
	assert.Contains(t, stdout, "runner stdout")
	assert.Contains(t, stderr, "runner stderr")
	assert.Contains(t, stderr, `app: Command "fake-tool" failed with exit code 2.`)
	assert.Contains(t, stderr, "command: fake-tool")
	assert.Contains(t, stderr, "wiggum run -p app fake-tool")
}

func TestRunWritesMetricsFile(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil || runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	root := writeWorkspace(t, map[string]string{
		"wiggum.config.json":        `{"projects": ["packages/*"]}`,
		"packages/lib/package.json": `{"name": "lib"}`,
		"packages/app/package.json": `{"name": "app", "dependencies": {"lib": "workspace:*"}}`,
	})
	tool := filepath.Join(root, "node_modules", ".bin", "ok-tool")
	require.NoError(t, os.MkdirAll(filepath.Dir(tool), 0o755))
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	_, stderr, err := executeCommand(t, "--root", root, "run", "--no-color", "--metrics-file", "out/wiggum.prom", "ok-tool")
	require.NoError(t, err, stderr)

	data, err := os.ReadFile(filepath.Join(root, "out", "wiggum.prom"))
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `wiggum_plan_levels{task="ok-tool"} 2`)
	assert.Contains(t, body, `wiggum_project_runs_total{status="succeeded",task="ok-tool"} 2`)
	assert.Contains(t, body, `wiggum_runs_total{success="true",task="ok-tool"} 1`)
}

func TestRunRequiresTool(t *testing.T) {
	root := scopeWorkspace(t)

	_, _, err := executeCommand(t, "--root", root, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a tool")
}

func TestRunRejectsInvalidParallel(t *testing.T) {
	root := scopeWorkspace(t)

	_, _, err := executeCommand(t, "--root", root, "run", "--parallel", "0", "tsc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --parallel")
}

func TestVersion(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wiggum ")

	stdout, _, err = executeCommand(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Contains(t, info, "goVersion")
}
