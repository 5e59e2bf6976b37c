// ABOUTME: Shared helpers for command tests
// ABOUTME: Points every command at a throwaway embedded store
package commands

import (
	"bytes"
	"strings"
	"testing"
)

// useTempStore configures an embedded store in a fresh directory and returns the directory
func useTempStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KEMMEI_CONFIG", "")
	t.Setenv("KEMMEI_ENGINE", "embedded")
	t.Setenv("KEMMEI_DATA_DIR", dir)
	t.Setenv("KEMMEI_DB_NAME", "kemmei.db")
	t.Setenv("KEMMEI_DOMAIN_MAP", "")
	t.Setenv("KEMMEI_LOG_LEVEL", "error")
	t.Setenv("KEMMEI_LOG_FORMAT", "console")
	return dir
}

// runRoot executes the root command with args and returns combined output
func runRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), err
}

// mustRun is runRoot that fails the test on error
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runRoot(t, "", args...)
	if err != nil {
		t.Fatalf("kemmei %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}
