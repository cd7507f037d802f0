package main

import (
	"os"
	"path/filepath"
	"testing"
)

// getBinaryPath returns the path to the referat_bot binary for testing
func getBinaryPath(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", "referat_bot")
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/referat_bot ./cmd/referat_bot'", binaryPath)
	}
	return binaryPath
}

// envFrom returns a getenv backed by a map
func envFrom(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}
