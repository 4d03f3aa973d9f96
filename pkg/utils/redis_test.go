package utils

import "testing"

func TestSessionCapScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if sessionCapAcquireScript == nil || sessionCapReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}
