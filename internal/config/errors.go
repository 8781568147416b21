package config

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for configuration loading and path resolution.
var (
	ErrConfigNotFound      = errors.New("CFG_NOT_FOUND")
	ErrConfigMalformed     = errors.New("CFG_MALFORMED")
	ErrMissingSection      = errors.New("CFG_MISSING_SECTION")
	ErrUnknownProject      = errors.New("CFG_UNKNOWN_PROJECT")
	ErrInvalidProjectEntry = errors.New("CFG_INVALID_PROJECT")
)

// UnknownProjectError is returned when a project key is not configured.
// Valid holds every configured key, sorted.
type UnknownProjectError struct {
	Project string
	Valid   []string
}

func (e *UnknownProjectError) Error() string {
	valid := "none"
	if len(e.Valid) > 0 {
		valid = strings.Join(e.Valid, ", ")
	}
	return fmt.Sprintf("%s: unknown project %q; valid options: %s", ErrUnknownProject, e.Project, valid)
}

func (e *UnknownProjectError) Unwrap() error {
	return ErrUnknownProject
}
