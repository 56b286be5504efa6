// ABOUTME: Shared helpers for registry package tests.
// ABOUTME: Provides temp manifest files and a fixed clock.

package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func timeNowForTest() time.Time {
	return time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
}

func writeTempManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}
