package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestCLI_E2E verifies the built binary's flag handling and exit codes.
func TestCLI_E2E(t *testing.T) {
	tmpDir := t.TempDir()
	binName := "dmcompare"
	if runtime.GOOS == "windows" {
		binName = "dmcompare.exe"
	}
	binPath := filepath.Join(tmpDir, binName)

	// go test runs from the package directory; build from the module root.
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/dmcompare")
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build dmcompare: %v", err)
	}

	tests := []struct {
		name     string
		args     []string
		wantOut  string // substring match (case-insensitive)
		wantCode int
	}{
		{
			name:     "Help",
			args:     []string{"--help"},
			wantOut:  "usage",
			wantCode: 0,
		},
		{
			name:     "Version Flag",
			args:     []string{"--version"},
			wantOut:  "dmcompare",
			wantCode: 0,
		},
		{
			name:     "Verbose And Quiet",
			args:     []string{"-v", "-quiet"},
			wantOut:  "mutually exclusive",
			wantCode: 4,
		},
		{
			name:     "Unknown Error Model",
			args:     []string{"-error-model", "gaussian"},
			wantOut:  "error model",
			wantCode: 4,
		},
		{
			name:     "Reuse Empty Store",
			args:     []string{"-reuse", "-quiet", "-store", filepath.Join(tmpDir, "empty.db"), "-out", tmpDir},
			wantOut:  "nothing to reuse",
			wantCode: 4,
		},
		{
			name:     "Missing Catalog",
			args:     []string{"-catalog", filepath.Join(tmpDir, "missing.yaml")},
			wantOut:  "catalog",
			wantCode: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binPath, tt.args...)
			cmd.Env = append(os.Environ(), "NO_COLOR=1")
			output, err := cmd.CombinedOutput()
			outStr := string(output)

			code := 0
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("running %s: %v", binName, err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nOutput: %s", code, tt.wantCode, outStr)
			}

			if tt.wantOut != "" && !strings.Contains(strings.ToLower(outStr), strings.ToLower(tt.wantOut)) {
				t.Errorf("Output missing expected string.\nExpected: %q\nGot:\n%s", tt.wantOut, outStr)
			}
		})
	}
}
