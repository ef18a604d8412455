package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tricount-export/tricount-export/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "tricount-export-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "tricount-export")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/tricount-export")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runTool(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	out, err := runTool(t, "init", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wrote default config")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestInit_Format(t *testing.T) {
	dir := t.TempDir()
	_, err := runTool(t, "init", dir, "--format", "ledger")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "format: ledger")
}

func TestInit_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := runTool(t, "init", dir, "--format", "pdf")
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, config.FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := runTool(t, "init", dir)
	require.NoError(t, err)

	out, err := runTool(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, out, "already exists")

	_, err = runTool(t, "init", dir, "--force")
	require.NoError(t, err)
}

func TestRoot_RequiresKey(t *testing.T) {
	out, err := runTool(t)
	require.Error(t, err, "missing key is a usage error")
	assert.Contains(t, out, "Usage:")
}

func TestRoot_TooManyArgs(t *testing.T) {
	_, err := runTool(t, "abc", "def")
	require.Error(t, err)
}

func TestRoot_License(t *testing.T) {
	out, err := runTool(t, "--license")
	require.NoError(t, err)
	assert.Contains(t, out, "GNU Affero General Public License")
}

func TestRoot_Version(t *testing.T) {
	out, err := runTool(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}
