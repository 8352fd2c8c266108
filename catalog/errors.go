package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("tour validation failed")

	// ErrUniquenessConflict matches every *UniquenessConflict.
	ErrUniquenessConflict = errors.New("unique field collision")

	// ErrQueryParse matches every *QueryParseError.
	ErrQueryParse = errors.New("invalid query input")

	// ErrHookExecution matches every *HookExecutionError.
	ErrHookExecution = errors.New("lifecycle hook failed")

	// ErrObservabilityFault matches every *ObservabilityFault.
	ErrObservabilityFault = errors.New("observability hook failed")
)

// FieldViolation is one violated constraint of one field.
type FieldViolation struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError aggregates every FieldViolation found for one candidate Tour.
// A write that fails validation is rejected in full.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Field+": "+v.Message)
	}

	return ErrValidationFailed.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Fields returns the names of all violated fields in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}

	return fields
}

// HasViolation reports whether the given field violated the given rule.
// An empty rule matches any rule.
func (e *ValidationError) HasViolation(field, rule string) bool {
	for _, v := range e.Violations {
		if v.Field == field && (rule == "" || v.Rule == rule) {
			return true
		}
	}

	return false
}

// UniquenessConflict is reported when a write collides with a unique field of another document.
type UniquenessConflict struct {
	Field string
	Value string
	Err   error
}

func (e *UniquenessConflict) Error() string {
	return fmt.Sprintf("%s: duplicate value %q for field %s", ErrUniquenessConflict.Error(), e.Value, e.Field)
}

func (e *UniquenessConflict) Is(target error) bool {
	return target == ErrUniquenessConflict
}

func (e *UniquenessConflict) Unwrap() error {
	return e.Err
}

// QueryParseError is reported for malformed filter, sort or projection input,
// either by the Features parse step or by the store rejecting the final query.
type QueryParseError struct {
	Param  string
	Reason string
	Err    error
}

func (e *QueryParseError) Error() string {
	if e.Param == "" {
		return ErrQueryParse.Error() + ": " + e.Reason
	}

	return fmt.Sprintf("%s: %s: %s", ErrQueryParse.Error(), e.Param, e.Reason)
}

func (e *QueryParseError) Is(target error) bool {
	return target == ErrQueryParse
}

func (e *QueryParseError) Unwrap() error {
	return e.Err
}

// HookExecutionError is returned when a pre-* hook failed and the wrapped operation was aborted.
type HookExecutionError struct {
	Event HookEvent
	Hook  string
	Err   error
}

func (e *HookExecutionError) Error() string {
	return fmt.Sprintf("%s: %s hook %q: %v", ErrHookExecution.Error(), e.Event, e.Hook, e.Err)
}

func (e *HookExecutionError) Is(target error) bool {
	return target == ErrHookExecution
}

func (e *HookExecutionError) Unwrap() error {
	return e.Err
}

// ObservabilityFault describes a failed post-* hook. It is logged and counted, never returned to callers.
type ObservabilityFault struct {
	Event HookEvent
	Hook  string
	Err   error
}

func (e *ObservabilityFault) Error() string {
	return fmt.Sprintf("%s: %s hook %q: %v", ErrObservabilityFault.Error(), e.Event, e.Hook, e.Err)
}

func (e *ObservabilityFault) Is(target error) bool {
	return target == ErrObservabilityFault
}

func (e *ObservabilityFault) Unwrap() error {
	return e.Err
}
