package validation

import (
	"fmt"
	"strings"
)

const (
	maxForumNameLen     = 120
	maxForumLocationLen = 120
	maxDescriptionLen   = 2000
)

// ValidateForumName validates a trimmed forum name.
func ValidateForumName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("forum name is required")
	}
	if len(name) > maxForumNameLen {
		return fmt.Errorf("forum name must be at most %d characters", maxForumNameLen)
	}
	return nil
}

// ValidateForumLocation validates a trimmed forum location.
func ValidateForumLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return fmt.Errorf("forum location is required")
	}
	if len(location) > maxForumLocationLen {
		return fmt.Errorf("forum location must be at most %d characters", maxForumLocationLen)
	}
	return nil
}

// ValidateForumDescription validates an optional description.
func ValidateForumDescription(description string) error {
	if len(description) > maxDescriptionLen {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLen)
	}
	return nil
}
