package dberror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
// This classification helps determine whether an error should trigger retries,
// user notifications, or system alerts.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by invalid user input or operations.
	// Examples: records that break the schema, duplicate primary keys, unknown fields.
	// These errors are typically fixable by modifying the caller's request.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryCapacity represents a store that cannot accept more records
	// without being rebuilt (static hash with every bucket full).
	ErrCategoryCapacity

	// ErrCategorySystem represents errors requiring administrator intervention.
	// Examples: unreadable files, invalid configuration, permission issues.
	ErrCategorySystem

	// ErrCategoryData represents errors related to data corruption or integrity.
	// Examples: unparsable catalog lines, blocks of the wrong length.
	ErrCategoryData
)

// Error codes. Each code corresponds to one entry of the storage error taxonomy.
const (
	CodeSchemaMismatch    = "SCHEMA_MISMATCH"
	CodeTypeMismatch      = "TYPE_MISMATCH"
	CodeFieldTooLarge     = "FIELD_TOO_LARGE"
	CodeReservedCharacter = "RESERVED_CHARACTER"
	CodeDuplicateKey      = "DUPLICATE_KEY"
	CodeNotFound          = "NOT_FOUND"
	CodeUnsupportedField  = "UNSUPPORTED_FIELD"
	CodeBucketsFull       = "BUCKETS_FULL"
	CodeCorruptCatalog    = "CORRUPT_CATALOG"
	CodeIO                = "IO_ERROR"
	CodeInvalidInterval   = "INVALID_INTERVAL"
	CodeInvalidKey        = "INVALID_KEY"
	CodeInvalidConfig     = "INVALID_CONFIG"
)

// Sentinel values for errors.Is comparisons. A DBError matches a sentinel
// when both carry the same Code.
var (
	ErrSchemaMismatch    = &DBError{Code: CodeSchemaMismatch, Category: ErrCategoryUser}
	ErrTypeMismatch      = &DBError{Code: CodeTypeMismatch, Category: ErrCategoryUser}
	ErrFieldTooLarge     = &DBError{Code: CodeFieldTooLarge, Category: ErrCategoryUser}
	ErrReservedCharacter = &DBError{Code: CodeReservedCharacter, Category: ErrCategoryUser}
	ErrDuplicateKey      = &DBError{Code: CodeDuplicateKey, Category: ErrCategoryUser}
	ErrNotFound          = &DBError{Code: CodeNotFound, Category: ErrCategoryUser}
	ErrUnsupportedField  = &DBError{Code: CodeUnsupportedField, Category: ErrCategoryUser}
	ErrBucketsFull       = &DBError{Code: CodeBucketsFull, Category: ErrCategoryCapacity}
	ErrCorruptCatalog    = &DBError{Code: CodeCorruptCatalog, Category: ErrCategoryData}
	ErrIO                = &DBError{Code: CodeIO, Category: ErrCategorySystem}
	ErrInvalidInterval   = &DBError{Code: CodeInvalidInterval, Category: ErrCategoryUser}
	ErrInvalidKey        = &DBError{Code: CodeInvalidKey, Category: ErrCategoryUser}
	ErrInvalidConfig     = &DBError{Code: CodeInvalidConfig, Category: ErrCategorySystem}
)

// DBError represents a structured database error with rich context information.
type DBError struct {
	// Code is a unique identifier for this error type (e.g., "DUPLICATE_KEY", "CORRUPT_CATALOG").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	// Example: "key 42" where Message might be "primary key already exists".
	Detail string

	// Hint suggests how the user might fix or work around this error.
	// Example: "reload the store with a larger bucket count".
	Hint string

	// Operation identifies the storage operation that was being performed when the error occurred.
	// Examples: "Insert", "SelectByKey", "DeleteByCriterion", "Decode".
	Operation string

	// Component identifies the system component where the error originated.
	// Examples: "FixedHeap", "OrderedFile", "StaticHash", "Catalog".
	Component string

	// Cause is the underlying error that triggered this database error.
	// This enables error chaining while preserving the original error context.
	Cause error

	// Stack contains the call stack where this error was created.
	// Used for debugging and is automatically captured in New() and Wrap().
	Stack []uintptr
}

// New creates a new DBError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	err := &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
	return err
}

// Newf is New with a formatted detail.
func Newf(category ErrorCategory, code, message, format string, args ...any) *DBError {
	err := New(category, code, message)
	err.Detail = fmt.Sprintf(format, args...)
	err.Stack = captureStack()
	return err
}

// Wrap wraps an existing error with storage-specific context information.
// If the error is already a DBError, it enriches the existing error with
// operation and component context (only if not already set).
//
// Wrap returns error rather than *DBError so that a nil input yields a true
// nil interface at call sites that return the result directly.
func Wrap(err error, code, operation, component string) error {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// captureStack captures the current call stack for debugging purposes.
// It skips the first 3 frames to exclude captureStack, New/Wrap, and the
// immediate caller, focusing on the actual error origin.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *DBError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling error chain traversal
// with Go's standard error handling functions like errors.Is and errors.As.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DBError with the same Code.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail sets Detail and returns the receiver for chaining.
func (e *DBError) WithDetail(format string, args ...any) *DBError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint sets Hint and returns the receiver for chaining.
func (e *DBError) WithHint(hint string) *DBError {
	e.Hint = hint
	return e
}

// In sets Operation and Component and returns the receiver for chaining.
func (e *DBError) In(operation, component string) *DBError {
	e.Operation = operation
	e.Component = component
	return e
}

// CodeOf returns the Code of the first DBError in err's chain, or "".
func CodeOf(err error) string {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Code
	}
	return ""
}

// IsInvalidRecord reports whether err rejects a record on integrity grounds
// (schema, type, width or reserved-character violations).
func IsInvalidRecord(err error) bool {
	switch CodeOf(err) {
	case CodeSchemaMismatch, CodeTypeMismatch, CodeFieldTooLarge, CodeReservedCharacter:
		return true
	}
	return false
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n",
			f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}
