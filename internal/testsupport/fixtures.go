// Package testsupport holds helpers shared by tests across packages: fixture
// paths, golden form definitions and control cleanup.
package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-inputfield/pkg/field"
	"github.com/goliatone/go-inputfield/pkg/fieldspec"
)

// RepoRoot returns the module root directory.
func RepoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("testsupport: resolve caller")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

// Fixture returns the path of a file below the module root.
func Fixture(t *testing.T, elems ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{RepoRoot(t)}, elems...)...)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("testsupport: fixture %s: %v", path, err)
	}
	return path
}

// SignupSpec is the path of the shared signup form definition.
func SignupSpec(t *testing.T) string {
	t.Helper()
	return Fixture(t, "pkg", "fieldspec", "testdata", "signup.yaml")
}

// PeopleAPI is the path of the shared OpenAPI document.
func PeopleAPI(t *testing.T) string {
	t.Helper()
	return Fixture(t, "pkg", "openapi", "testdata", "people.yaml")
}

// CloseAll closes every control when the test finishes.
func CloseAll(t *testing.T, controls []field.Control) {
	t.Helper()
	t.Cleanup(func() {
		for _, c := range controls {
			c.Close()
		}
	})
}

// MustLoadFormSpec loads a definition file or fails the test.
func MustLoadFormSpec(t *testing.T, path string) fieldspec.FormSpec {
	t.Helper()
	spec, err := fieldspec.Load(path)
	if err != nil {
		t.Fatalf("testsupport: load form spec: %v", err)
	}
	return spec
}

// WriteMaybeGolden encodes spec to path when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, spec fieldspec.FormSpec) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	data, err := fieldspec.Encode(spec)
	if err != nil {
		t.Fatalf("encode golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareGolden loads the golden definition at path and returns a diff
// against got. Empty rule maps compare equal to nil ones.
func CompareGolden(t *testing.T, path string, got fieldspec.FormSpec) string {
	t.Helper()
	want := MustLoadFormSpec(t, path)
	return cmp.Diff(want, got, cmpopts.EquateEmpty())
}
