package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommand_AllPass(t *testing.T) {
	out, _, err := execute(t, "test", testScenarioDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ boxing")
	assert.Contains(t, out, "✓ lookup")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	out, _, err := execute(t, "test", testScenarioDir, "--filter", "box*", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 1, data["total"])
	assert.EqualValues(t, 1, data["passed"])
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := copyScenarios(t)
	golden := filepath.Join(dir, "golden", "boxing.golden")
	require.NoError(t, os.WriteFile(golden, []byte(`{"stale":true}`), 0644))

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ boxing")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_UpdateRegeneratesGolden(t *testing.T) {
	dir := copyScenarios(t)
	golden := filepath.Join(dir, "golden", "boxing.golden")
	require.NoError(t, os.Remove(golden))

	_, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join(testScenarioDir, "golden", "boxing.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestTestCommand_LoadFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nunknown: 1\n"), 0644))

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingPath(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// copyScenarios copies the scenario testdata into a temp dir so golden
// files can be rewritten. Cluster paths are made absolute.
func copyScenarios(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))

	for _, name := range []string{"boxing.yaml", "lookup.yaml", "golden/boxing.golden"} {
		data, err := os.ReadFile(filepath.Join(testScenarioDir, name))
		require.NoError(t, err)
		data = []byte(replaceClusterPath(string(data), mustAbs(t, testCluster)))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
	}
	return dir
}

func replaceClusterPath(content, abs string) string {
	return strings.ReplaceAll(content, "cluster_spec: ../cluster.cue", "cluster_spec: "+abs)
}
