package types

import "fmt"

// InputError means the story set or config is structurally invalid.
// Analysis is not run when one is returned.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// PersistenceError means the report or score write failed after a
// successful computation. The computed report is still returned to the
// caller so persistence can be retried without recomputing.
type PersistenceError struct {
	OrganizationID string
	ReportID       string
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist report %s for org %s: %v", e.ReportID, e.OrganizationID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// OverrideConflict records an automatic recompute that attempted to
// overwrite a manually-protected field. The write is rejected for that
// field only; the condition is a diagnostic, not a fatal error.
type OverrideConflict struct {
	StoryID   string
	Framework Framework
	Field     string
}

func (c OverrideConflict) Diagnostic() Diagnostic {
	return Diagnostic{
		StoryID:   c.StoryID,
		Framework: c.Framework,
		Field:     c.Field,
		Message:   fmt.Sprintf("field %q is protected by a manual override; automatic value not applied", c.Field),
	}
}
