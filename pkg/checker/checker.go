// Package checker runs tac_plus-ng syntax checks against rendered
// configuration text.
package checker

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/tacacs-console/pkg/apperr"
)

// Status is the outcome of a syntax check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// CheckResult is the outcome of checking one configuration text. Line is
// 1-based and matches the checked content; 0 means no error was found.
// "Not yet checked" is the absence of a CheckResult, never a sentinel.
type CheckResult struct {
	Status    Status `json:"status"`
	RawOutput string `json:"raw_output"`
	Line      int    `json:"line"`
	Message   string `json:"message"`
}

// Err converts a failed result into a structured error; nil for a pass.
func (r *CheckResult) Err() error {
	if r.Status == StatusPass {
		return nil
	}
	return apperr.New(apperr.CodeSyntaxCheckFailed, r.Message).
		WithDetail("line", r.Line)
}

// Checker validates configuration text. The production implementation
// shells out to the daemon binary; tests substitute their own.
type Checker interface {
	Check(ctx context.Context, content string) (*CheckResult, error)
}

// BinaryChecker invokes `tac_plus-ng -P <file>` on a temp copy of the
// content. Diagnostics arrive on stderr as `<file>:<line>: <message>`.
type BinaryChecker struct {
	binary  string
	timeout time.Duration
	logger  *zap.Logger
}

// DefaultBinary is the daemon binary used for parse-only checks.
const DefaultBinary = "/usr/local/sbin/tac_plus-ng"

// DefaultTimeout bounds a single checker invocation.
const DefaultTimeout = 10 * time.Second

// NewBinaryChecker creates a checker around the given binary path.
// Empty arguments fall back to the defaults.
func NewBinaryChecker(binary string, timeout time.Duration, logger *zap.Logger) *BinaryChecker {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BinaryChecker{
		binary:  binary,
		timeout: timeout,
		logger:  logger,
	}
}

// diagnosticRe matches the first `:<line>: <message>` diagnostic in the
// checker's stderr.
var diagnosticRe = regexp.MustCompile(`:(\d+):\s*(.+)`)

// Check writes content to a temp file and runs the parse-only check.
// A missing binary or a timeout yields CHECKER_UNAVAILABLE; a nonzero
// exit yields a fail result, never an error.
func (c *BinaryChecker) Check(ctx context.Context, content string) (*CheckResult, error) {
	tmp, err := os.CreateTemp("", "tacacs-check-*.cfg")
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to create temp config file")
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to write temp config file")
	}
	if err := tmp.Close(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to close temp config file")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, "-P", path)
	output, runErr := cmd.CombinedOutput()
	raw := strings.TrimSpace(string(output))

	if ctx.Err() == context.DeadlineExceeded {
		return nil, apperr.Newf(apperr.CodeCheckerUnavailable,
			"syntax check timed out after %s", c.timeout)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// The binary could not be started at all.
			return nil, apperr.Wrap(runErr, apperr.CodeCheckerUnavailable,
				"failed to invoke "+filepath.Base(c.binary))
		}
		line, message := parseDiagnostic(raw)
		c.logger.Warn("syntax check failed",
			zap.Int("line", line),
			zap.String("message", message))
		return &CheckResult{
			Status:    StatusFail,
			RawOutput: raw,
			Line:      line,
			Message:   message,
		}, nil
	}

	if raw == "" {
		raw = "Syntax check successful."
	}
	return &CheckResult{
		Status:    StatusPass,
		RawOutput: raw,
		Line:      0,
		Message:   "Syntax check successful.",
	}, nil
}

// parseDiagnostic extracts the 1-based line and message from checker
// output. Unparseable output keeps line 0 with the raw text as message.
func parseDiagnostic(raw string) (int, string) {
	m := diagnosticRe.FindStringSubmatch(raw)
	if m == nil {
		msg := raw
		if msg == "" {
			msg = "Unknown error during syntax check."
		}
		return 0, msg
	}
	line, err := strconv.Atoi(m[1])
	if err != nil {
		line = 0
	}
	return line, strings.TrimSpace(m[2])
}
