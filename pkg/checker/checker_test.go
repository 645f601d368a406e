package checker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/tacacs-console/pkg/apperr"
)

// fakeBinary writes an executable shell script standing in for the
// daemon binary.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tac_plus-ng")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestCheckPass(t *testing.T) {
	binary := fakeBinary(t, "exit 0")
	c := NewBinaryChecker(binary, 5*time.Second, zap.NewNop())

	result, err := c.Check(context.Background(), "id = spawnd {}\n")
	require.NoError(t, err)
	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, 0, result.Line)
	assert.Equal(t, "Syntax check successful.", result.Message)
	assert.NoError(t, result.Err())
}

func TestCheckFailWithDiagnostic(t *testing.T) {
	binary := fakeBinary(t, `echo "$2:12: unrecognized keyword 'hosty'" >&2; exit 1`)
	c := NewBinaryChecker(binary, 5*time.Second, zap.NewNop())

	result, err := c.Check(context.Background(), "hosty = bad {\n")
	require.NoError(t, err)
	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, 12, result.Line)
	assert.Equal(t, "unrecognized keyword 'hosty'", result.Message)
	assert.Contains(t, result.RawOutput, ":12:")

	err = result.Err()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeSyntaxCheckFailed))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 12, appErr.Details["line"])
}

func TestCheckFailUnparseableOutput(t *testing.T) {
	binary := fakeBinary(t, `echo "something went wrong" >&2; exit 1`)
	c := NewBinaryChecker(binary, 5*time.Second, zap.NewNop())

	result, err := c.Check(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, 0, result.Line)
	assert.Equal(t, "something went wrong", result.Message)
}

func TestCheckMissingBinary(t *testing.T) {
	c := NewBinaryChecker(filepath.Join(t.TempDir(), "nope"), 5*time.Second, zap.NewNop())

	_, err := c.Check(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeCheckerUnavailable))
}

func TestCheckTimeout(t *testing.T) {
	binary := fakeBinary(t, "sleep 5")
	c := NewBinaryChecker(binary, 100*time.Millisecond, zap.NewNop())

	_, err := c.Check(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeCheckerUnavailable))
}

func TestNewBinaryCheckerDefaults(t *testing.T) {
	c := NewBinaryChecker("", 0, zap.NewNop())
	assert.Equal(t, DefaultBinary, c.binary)
	assert.Equal(t, DefaultTimeout, c.timeout)
}

func TestParseDiagnostic(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "standard diagnostic",
			raw:      "/tmp/check.cfg:42: expected '}'",
			wantLine: 42,
			wantMsg:  "expected '}'",
		},
		{
			name:     "no line info",
			raw:      "fatal startup error",
			wantLine: 0,
			wantMsg:  "fatal startup error",
		},
		{
			name:     "empty output",
			raw:      "",
			wantLine: 0,
			wantMsg:  "Unknown error during syntax check.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, msg := parseDiagnostic(tt.raw)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
