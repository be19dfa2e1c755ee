//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "daraja-gateway"
	ConsumerName = "melagro-api"

	StateCredentialsValid = "app credentials are valid"
	StatePushAccepted     = "stk push requests are accepted"
	StatePushRejected     = "stk push rejects invalid phone numbers"
)

const (
	ExampleShortcode   = "174379"
	ExamplePhone       = "254712345678"
	ExampleBadPhone    = "0712"
	ExampleReference   = "MA-9F2C41A08B"
	ExampleCheckoutID  = "ws_CO_191220191020363925"
	ExampleAccessToken = "c9SQxWWhmdVRlyh0zh8gZDTkubVF"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
