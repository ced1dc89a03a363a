// Package validation holds the argument-shape checks applied before a
// request reaches the subagent job manager. The manager itself trusts
// its inputs; this package is the minimal, concrete collaborator that
// checks them before they get there.
package validation

import (
	"fmt"
	"regexp"
)

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidateJobID checks that id has the shape of a UUIDv4 job identifier.
func ValidateJobID(id string) error {
	if id == "" {
		return fmt.Errorf("jobId cannot be empty")
	}
	if !uuidRegex.MatchString(id) {
		return fmt.Errorf("invalid jobId format: %s", id)
	}
	return nil
}

// ValidatePrompt rejects empty prompts. Prompt *content* is explicitly
// out of scope; only presence is checked here.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	return nil
}

const maxReasonableCursor = 1 << 31

// ValidateCursor rejects cursors so large they cannot plausibly index a
// real event vector, leaving the in-range clamping behavior (negative ->
// 0) to the manager.
func ValidateCursor(cursor int) error {
	if cursor > maxReasonableCursor {
		return fmt.Errorf("cursor out of range: %d", cursor)
	}
	return nil
}
