package testutil

import (
	"os/exec"
	"testing"
)

// RequireTool returns the path of tool or skips the test when it is not
// installed.
func RequireTool(t *testing.T, tool string) string {
	t.Helper()
	path, err := exec.LookPath(tool)
	if err != nil {
		t.Skipf("%s not found: %v", tool, err)
	}
	return path
}
