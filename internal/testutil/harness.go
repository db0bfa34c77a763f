package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/prodchain/internal/cli"
)

// HarnessResult holds the outcomes of a command line run.
type HarnessResult struct {
	Stdout string
	Stderr string
	Err    error
	// Dir is the directory the source files were written to.
	Dir string
}

// ExitCode returns the process exit code the run would have produced.
func (r *HarnessResult) ExitCode() int {
	if r.Err == nil {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(r.Err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// WriteFiles writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns it.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// RunCLI runs the command line with args and captures both streams.
func RunCLI(ctx context.Context, t *testing.T, args ...string) *HarnessResult {
	t.Helper()
	var out, errOut SafeBuffer
	err := cli.Execute(ctx, args, &out, &errOut)

	if os.Getenv("PRODCHAIN_TEST_LOGS") == "true" {
		t.Logf("--- stderr for %s ---\n%s", t.Name(), errOut.String())
	}
	return &HarnessResult{Stdout: out.String(), Stderr: errOut.String(), Err: err}
}

// RunIntegrationTest writes files to a temporary directory and runs the
// command line with args followed by that directory.
func RunIntegrationTest(t *testing.T, files map[string]string, args ...string) *HarnessResult {
	t.Helper()
	dir := WriteFiles(t, files)
	result := RunCLI(context.Background(), t, append(args, dir)...)
	result.Dir = dir
	return result
}
