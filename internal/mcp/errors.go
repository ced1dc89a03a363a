package mcp

import (
	"fmt"
	"strings"

	"github.com/fenwick-labs/subagentd/internal/logger"
)

// sensitivePatterns contains substrings that indicate sensitive error details.
var sensitivePatterns = []string{
	"API_KEY",
	"api_key",
	"token",
	"password",
	"secret",
	"credential",
}

// internalErrorPatterns contains substrings that indicate internal,
// plumbing-level errors a coordinator has no actionable use for.
var internalErrorPatterns = []string{
	"failed to exec",
	"failed to start",
	"connection refused",
	"no such file",
	"permission denied",
	"context canceled",
	"EOF",
}

// SanitizeError returns a client-safe error message for tool-call
// responses; whenever the message is replaced, the untruncated error is
// logged server-side first. Errors that match a user-facing pattern, such
// as reference errors ("Unknown jobId"), are returned verbatim and are not
// logged here.
func SanitizeError(err error, operation string) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	for _, pattern := range sensitivePatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			logger.Slog().Error("tool call failed", "operation", operation, "error", err, "reason", "sensitive")
			return fmt.Errorf("%s failed: internal configuration error", operation)
		}
	}

	for _, pattern := range internalErrorPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			logger.Slog().Error("tool call failed", "operation", operation, "error", err, "reason", "internal")
			return fmt.Errorf("%s failed: internal error", operation)
		}
	}

	if isUserFacingError(lower) {
		return err
	}

	logger.Slog().Error("tool call failed", "operation", operation, "error", err)
	return fmt.Errorf("%s failed: %s", operation, genericErrorMessage(errStr))
}

// isUserFacingError reports whether errStr (already lowercased) looks
// safe to show to a coordinator verbatim.
func isUserFacingError(lower string) bool {
	userFacingPatterns := []string{
		"not found", "unknown jobid", "already exists", "invalid",
		"required", "must be", "cannot be", "is not running",
		"too many concurrent jobs", "completed naturally",
	}
	for _, pattern := range userFacingPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func genericErrorMessage(errStr string) string {
	if len(errStr) < 50 {
		return errStr
	}
	return "an unexpected error occurred"
}
