package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/evsingleline/singleline/pkg/survey"
)

// swapStdout redirects command output to w for the duration of the test.
func swapStdout(t *testing.T, w io.Writer) {
	t.Helper()
	old := stdout
	stdout = w
	t.Cleanup(func() { stdout = old })
}

// testCLI returns a CLI with deterministic ids and a config that disables
// caching and keeps every path inside a temp dir.
func testCLI(t *testing.T) *CLI {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))

	// Picked up through DefaultPath; RootCommand resets the --config target.
	cfgDir := filepath.Join(dir, "config", appName)
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := "[cache]\nbackend = \"none\"\ndir = \"" + filepath.ToSlash(filepath.Join(dir, "cache")) + "\"\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.ids = survey.NewCounter()
	return c
}

// run executes one command line against a fresh root command and returns
// what it printed.
func run(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	swapStdout(t, &out)

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun is run for steps that must succeed.
func mustRun(t *testing.T, c *CLI, args ...string) string {
	t.Helper()
	out, err := run(t, c, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

// newSurveyFile creates a survey with an EV sub-panel and returns its path.
func newSurveyFile(t *testing.T, c *CLI) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depot.json")
	mustRun(t, c, "new", path, "--voltage", "120/240", "--amps", "400", "--main", "400", "--customer", "Depot")
	mustRun(t, c, "panel", "add", path, "--parent", "MDP", "--name", "EV Panel", "--main", "200", "--spaces", "42")
	return path
}

func readSurvey(t *testing.T, path string) survey.Survey {
	t.Helper()
	s, err := loadSurvey(path)
	if err != nil {
		t.Fatalf("loadSurvey: %v", err)
	}
	return s
}
