// Package errors provides structured error handling for the boot-time metadata binder.
// It defines error codes, categories and severities so callers can tell an invalid
// model apart from a feature the binder does not cover yet.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique binder error code
type ErrorCode string

// ErrorCategory represents the category of a binder error
type ErrorCategory string

const (
	// CategoryHierarchy covers hierarchy discovery and inheritance problems
	CategoryHierarchy ErrorCategory = "hierarchy"
	// CategoryAttribute covers attribute classification problems
	CategoryAttribute ErrorCategory = "attribute"
	// CategoryMapping covers mapping-model registration problems
	CategoryMapping ErrorCategory = "mapping"
	// CategoryDeclaration covers problems reading declarations
	CategoryDeclaration ErrorCategory = "declaration"
	// CategoryCallback covers lifecycle-callback problems
	CategoryCallback ErrorCategory = "callback"
	// CategoryLifecycle covers misuse of the binder itself
	CategoryLifecycle ErrorCategory = "lifecycle"
	// CategoryUnsupported marks paths the binder does not implement
	CategoryUnsupported ErrorCategory = "unsupported"
)

// ErrorSeverity indicates the severity level of an error
type ErrorSeverity string

const (
	// SeverityError aborts the bootstrap
	SeverityError ErrorSeverity = "error"
	// SeverityWarning is a diagnostic that does not affect the result
	SeverityWarning ErrorSeverity = "warning"
)

// Fatal error codes (BND100-199)
const (
	// ErrAccessTypeDetermination indicates no access strategy could be found for a hierarchy
	ErrAccessTypeDetermination ErrorCode = "BND100"
	// ErrMultipleAttributeNatures indicates contradictory attribute declarations
	ErrMultipleAttributeNatures ErrorCode = "BND101"
	// ErrUnsupported indicates a path the binder does not implement
	ErrUnsupported ErrorCode = "BND102"
	// ErrUnknownTable indicates a column names a table that was not declared
	ErrUnknownTable ErrorCode = "BND103"
	// ErrDuplicateMapping indicates a name was registered twice
	ErrDuplicateMapping ErrorCode = "BND104"
	// ErrInvalidHierarchy indicates an entity was found where a superclass was expected
	ErrInvalidHierarchy ErrorCode = "BND105"
	// ErrUnresolvedClass indicates a class name the registry cannot resolve
	ErrUnresolvedClass ErrorCode = "BND106"
	// ErrDuplicateCallback indicates two callback methods for one event on one class
	ErrDuplicateCallback ErrorCode = "BND107"
	// ErrAlreadyBound indicates a one-shot binder was used twice
	ErrAlreadyBound ErrorCode = "BND108"
	// ErrInvalidDirective indicates a malformed directive value
	ErrInvalidDirective ErrorCode = "BND109"
)

// Diagnostic codes (BND200-299)
const (
	// WarnInheritanceOnSubclass indicates an inheritance directive on a non-root member
	WarnInheritanceOnSubclass ErrorCode = "BND200"
	// WarnUnusedMappedSuperclass indicates a mapped superclass no hierarchy reaches
	WarnUnusedMappedSuperclass ErrorCode = "BND201"
	// WarnEmptyCallbackListener indicates a listener class without callback methods
	WarnEmptyCallbackListener ErrorCode = "BND202"
)

// BindError represents a structured binder error
type BindError struct {
	// Code is the unique error code (e.g. "BND100")
	Code ErrorCode `json:"code"`
	// Category is the error category
	Category ErrorCategory `json:"category"`
	// Severity is the error severity level
	Severity ErrorSeverity `json:"severity"`
	// Message is the primary error message
	Message string `json:"message"`
	// ClassName is the class the error relates to (optional)
	ClassName string `json:"class,omitempty"`
	// Attribute is the attribute the error relates to (optional)
	Attribute string `json:"attribute,omitempty"`
	// Suggestion provides a hint for fixing the error (optional)
	Suggestion string `json:"suggestion,omitempty"`

	cause error
}

// Error implements the error interface
func (e *BindError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.ClassName != "" {
		b.WriteString(" [class ")
		b.WriteString(e.ClassName)
		if e.Attribute != "" {
			b.WriteString(", attribute ")
			b.WriteString(e.Attribute)
		}
		b.WriteString("]")
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any
func (e *BindError) Unwrap() error {
	return e.cause
}

// IsFatal reports whether the error aborts the bootstrap
func (e *BindError) IsFatal() bool {
	return e.Severity == SeverityError
}

// ToJSON returns the error as a JSON string
func (e *BindError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithAttribute sets the attribute the error relates to
func (e *BindError) WithAttribute(attribute string) *BindError {
	e.Attribute = attribute
	return e
}

// WithSuggestion sets a suggestion for fixing the error
func (e *BindError) WithSuggestion(suggestion string) *BindError {
	e.Suggestion = suggestion
	return e
}

// WithCause attaches an underlying error
func (e *BindError) WithCause(cause error) *BindError {
	e.cause = cause
	return e
}

func newError(code ErrorCode, category ErrorCategory, severity ErrorSeverity, className, message string) *BindError {
	return &BindError{
		Code:      code,
		Category:  category,
		Severity:  severity,
		Message:   message,
		ClassName: className,
	}
}

// HasCode reports whether err (or anything it wraps) is a BindError with the given code
func HasCode(err error, code ErrorCode) bool {
	var be *BindError
	if !stderrors.As(err, &be) {
		return false
	}
	return be.Code == code
}

// AsBindError returns the first *BindError in err's chain
func AsBindError(err error) (*BindError, bool) {
	var be *BindError
	if !stderrors.As(err, &be) {
		return nil, false
	}
	return be, true
}

// IsUnsupported reports whether err signals incomplete binder coverage rather than an invalid model
func IsUnsupported(err error) bool {
	var be *BindError
	if !stderrors.As(err, &be) {
		return false
	}
	return be.Category == CategoryUnsupported
}

// NewAccessTypeDetermination creates a BND100 error
func NewAccessTypeDetermination(rootClass string) *BindError {
	return newError(
		ErrAccessTypeDetermination,
		CategoryHierarchy,
		SeverityError,
		rootClass,
		fmt.Sprintf("Unable to determine access type for hierarchy rooted at '%s'", rootClass),
	).WithSuggestion("Annotate the identifier field or getter with @Id, or declare @Access on the root class")
}

// NewMultipleAttributeNatures creates a BND101 error
func NewMultipleAttributeNatures(className, attribute string, natures []string) *BindError {
	return newError(
		ErrMultipleAttributeNatures,
		CategoryAttribute,
		SeverityError,
		className,
		fmt.Sprintf("Attribute '%s' declares multiple natures: %s", attribute, strings.Join(natures, ", ")),
	).WithAttribute(attribute)
}

// NewUnsupported creates a BND102 error
func NewUnsupported(className, feature string) *BindError {
	return newError(
		ErrUnsupported,
		CategoryUnsupported,
		SeverityError,
		className,
		fmt.Sprintf("Not yet implemented: %s", feature),
	)
}

// NewUnknownTable creates a BND103 error
func NewUnknownTable(className, attribute, table string) *BindError {
	return newError(
		ErrUnknownTable,
		CategoryMapping,
		SeverityError,
		className,
		fmt.Sprintf("Table '%s' is not the primary table or a declared secondary table", table),
	).WithAttribute(attribute).
		WithSuggestion(fmt.Sprintf("Declare @SecondaryTable(name=\"%s\") on the entity", table))
}

// NewDuplicateMapping creates a BND104 error
func NewDuplicateMapping(kind, name string) *BindError {
	return newError(
		ErrDuplicateMapping,
		CategoryMapping,
		SeverityError,
		"",
		fmt.Sprintf("Duplicate %s mapping '%s'", kind, name),
	)
}

// NewInvalidHierarchy creates a BND105 error
func NewInvalidHierarchy(className, message string) *BindError {
	return newError(ErrInvalidHierarchy, CategoryHierarchy, SeverityError, className, message)
}

// NewUnresolvedClass creates a BND106 error
func NewUnresolvedClass(className string) *BindError {
	return newError(
		ErrUnresolvedClass,
		CategoryDeclaration,
		SeverityError,
		className,
		fmt.Sprintf("Unable to resolve class '%s'", className),
	)
}

// NewDuplicateCallback creates a BND107 error
func NewDuplicateCallback(className, event, first, second string) *BindError {
	return newError(
		ErrDuplicateCallback,
		CategoryCallback,
		SeverityError,
		className,
		fmt.Sprintf("Only one method may handle %s per class, found '%s' and '%s'", event, first, second),
	)
}

// NewAlreadyBound creates a BND108 error
func NewAlreadyBound() *BindError {
	return newError(
		ErrAlreadyBound,
		CategoryLifecycle,
		SeverityError,
		"",
		"Binder has already run; create a new binder over a fresh collector",
	)
}

// NewInvalidDirective creates a BND109 error
func NewInvalidDirective(className, directive, message string) *BindError {
	return newError(
		ErrInvalidDirective,
		CategoryDeclaration,
		SeverityError,
		className,
		fmt.Sprintf("Invalid @%s: %s", directive, message),
	)
}

// NewInheritanceOnSubclass creates a BND200 diagnostic
func NewInheritanceOnSubclass(className, rootClass string) *BindError {
	return newError(
		WarnInheritanceOnSubclass,
		CategoryHierarchy,
		SeverityWarning,
		className,
		fmt.Sprintf("@Inheritance on non-root class is ignored; the strategy is taken from '%s'", rootClass),
	)
}

// NewUnusedMappedSuperclass creates a BND201 diagnostic
func NewUnusedMappedSuperclass(className string) *BindError {
	return newError(
		WarnUnusedMappedSuperclass,
		CategoryHierarchy,
		SeverityWarning,
		className,
		"Mapped superclass is not part of any entity hierarchy",
	)
}

// NewEmptyCallbackListener creates a BND202 diagnostic
func NewEmptyCallbackListener(className, listener string) *BindError {
	return newError(
		WarnEmptyCallbackListener,
		CategoryCallback,
		SeverityWarning,
		className,
		fmt.Sprintf("'%s' defines no lifecycle callback methods and is ignored", listener),
	)
}
