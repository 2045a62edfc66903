package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DjordjeVuckovic/csv-echo/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "logs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("ENV_PATH", "")

	var stdout, stderr bytes.Buffer
	code := execute(t.Context(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_EmitsColumn(t *testing.T) {
	path := writeCSV(t, "a,b,c\n1,2,3\n4,5,6\n")

	code, out, _ := runCLI(t, path, "--column", "b", "--min", "0", "--max", "0")

	assert.Equal(t, apperr.ExitOK, code)
	assert.Equal(t, "2\n5\n", out)
}

func TestExecute_NameValueScenario(t *testing.T) {
	path := writeCSV(t, "name,value\nx,10\ny,\nz,30\n")

	code, out, _ := runCLI(t, path, "--column", "value", "--min", "0", "--max", "0")
	assert.Equal(t, apperr.ExitOK, code)
	assert.Equal(t, "10\n\n30\n", out)

	code, out, errOut := runCLI(t, path, "--column", "missing", "--min", "0", "--max", "0")
	assert.Equal(t, apperr.ExitFailure, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "missing")
	assert.Contains(t, errOut, "name")
	assert.Contains(t, errOut, "value")
}

func TestExecute_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")

	code, out, errOut := runCLI(t, path, "--column", "b", "--min", "0", "--max", "0")

	assert.NotEqual(t, apperr.ExitOK, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "not found")
	assert.Contains(t, errOut, "absent.csv")
}

func TestExecute_MinAboveMax(t *testing.T) {
	// The file does not exist: validation must fail before it is opened.
	path := filepath.Join(t.TempDir(), "absent.csv")

	code, out, errOut := runCLI(t, path, "--column", "b", "--min", "0.6", "--max", "0.5")

	assert.Equal(t, apperr.ExitUsage, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "--min must be less than or equal to --max")
	assert.NotContains(t, errOut, "not found")
}

func TestExecute_UsageErrors(t *testing.T) {
	path := writeCSV(t, "a\n1\n")

	tests := []struct {
		name string
		args []string
	}{
		{"no file", []string{"--column", "a"}},
		{"two files", []string{path, path, "--column", "a"}},
		{"no column", []string{path}},
		{"unknown flag", []string{path, "--column", "a", "--speed", "1"}},
		{"bad number", []string{path, "--column", "a", "--min", "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, tt.args...)

			assert.Equal(t, apperr.ExitUsage, code)
			assert.Empty(t, out)
			assert.True(t, strings.HasPrefix(errOut, "Error: "), errOut)
		})
	}
}

func TestExecute_StrictSkipIsSilent(t *testing.T) {
	path := writeCSV(t, "name,value\nx,10\ny\nz,30\n")

	code, out, errOut := runCLI(t, path, "--column", "value", "--min", "0", "--max", "0", "--on-missing", "skip")

	assert.Equal(t, apperr.ExitOK, code)
	assert.Equal(t, "10\n30\n", out)
	assert.Empty(t, errOut)
}

func TestExecute_TolerantWarns(t *testing.T) {
	path := writeCSV(t, "name,value\nx,10\ny\nz,30\n")

	code, out, errOut := runCLI(t, path, "--column", "value", "--min", "0", "--max", "0")

	assert.Equal(t, apperr.ExitOK, code)
	assert.Equal(t, "10\n30\n", out)
	assert.Contains(t, errOut, "Missing value for column")
	assert.Contains(t, errOut, "run_id=")
}

func TestExecute_ConsumerClosed(t *testing.T) {
	path := writeCSV(t, "v\n1\n2\n3\n")
	t.Setenv("ENV_PATH", "")

	pr, pw := io.Pipe()
	require.NoError(t, pr.Close())

	var stderr bytes.Buffer
	code := execute(t.Context(), []string{path, "--column", "v", "--min", "0", "--max", "0"}, pw, &stderr)

	assert.Equal(t, apperr.ExitOK, code)
	assert.Empty(t, stderr.String())
}

func TestExecute_Interrupted(t *testing.T) {
	path := writeCSV(t, "v\n1\n2\n3\n")
	t.Setenv("ENV_PATH", "")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var stdout, stderr bytes.Buffer
	code := execute(ctx, []string{path, "--column", "v", "--min", "10", "--max", "10"}, &stdout, &stderr)

	assert.Equal(t, apperr.ExitOK, code)
	assert.Empty(t, stdout.String())
}

func TestExecute_EnvConfiguration(t *testing.T) {
	path := writeCSV(t, "a,b\n1,2\n")
	t.Setenv("CSV_ECHO_COLUMN", "a")
	t.Setenv("CSV_ECHO_MIN", "0")
	t.Setenv("CSV_ECHO_MAX", "0")

	code, out, _ := runCLI(t, path)

	assert.Equal(t, apperr.ExitOK, code)
	assert.Equal(t, "1\n", out)
}

func TestExecute_DotEnvFile(t *testing.T) {
	path := writeCSV(t, "a,b\n1,2\n")
	envFile := filepath.Join(t.TempDir(), "echo.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CSV_ECHO_MIN=0\nCSV_ECHO_MAX=0\n"), 0644))

	// Register cleanup for the variables godotenv will set.
	t.Setenv("CSV_ECHO_MIN", "")
	t.Setenv("CSV_ECHO_MAX", "")
	require.NoError(t, os.Unsetenv("CSV_ECHO_MIN"))
	require.NoError(t, os.Unsetenv("CSV_ECHO_MAX"))
	t.Setenv("ENV_PATH", envFile)

	var stdout, stderr bytes.Buffer
	code := execute(t.Context(), []string{path, "--column", "b"}, &stdout, &stderr)

	assert.Equal(t, apperr.ExitOK, code)
	assert.Equal(t, "2\n", stdout.String())
}

func TestExecute_Profile(t *testing.T) {
	path := writeCSV(t, "level,message\ninfo,started\nwarn,slow\n")
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("column: message\ndelay:\n  min: 0\n  max: 0\n"), 0644))

	code, out, _ := runCLI(t, path, "--profile", profile)

	assert.Equal(t, apperr.ExitOK, code)
	assert.Equal(t, "started\nslow\n", out)
}
