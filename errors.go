package nullbind

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/nullbind/i18n"
)

// Issue codes.
const (
	// Binding taxonomy; each is terminal for the binding call.
	CodeNullNotAllowed = "null_not_allowed"
	CodeTypeConversion = "type_conversion"
	CodeSchemaMismatch = "schema_mismatch"
	// Document-level failures raised before resolution starts.
	CodeInvalidType  = "invalid_type"
	CodeDuplicateKey = "duplicate_key"
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
)

// ErrInvalidSchema is wrapped by every schema construction error.
var ErrInvalidSchema = errors.New("nullbind: invalid schema")

// Issue is the flat, serializable view of a failure.
type Issue struct {
	Path     string // JSON Pointer (for example: /beanVal/intVal).
	Property string // Declared property name, empty for document-level issues.
	Code     string
	Message  string
	Hint     string // Optional: remediation hints.
	Cause    error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"expected": "int"}).
	Params map[string]any
}

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if n := len(iss); n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// NullNotAllowedError reports an explicit null on a Fail-policy property.
type NullNotAllowedError struct {
	Property string
	Path     string
}

func (e *NullNotAllowedError) Error() string {
	return "nullbind: " + i18n.T(CodeNullNotAllowed, map[string]string{"property": e.Property}) + " at " + e.Path
}

// Issue converts the error into its Issue form.
func (e *NullNotAllowedError) Issue() Issue {
	return Issue{
		Path:     e.Path,
		Property: e.Property,
		Code:     CodeNullNotAllowed,
		Message:  i18n.T(CodeNullNotAllowed, map[string]string{"property": e.Property}),
		Hint:     "omit the key instead of sending null",
	}
}

// TypeConversionError reports a raw value that cannot be decoded into the
// declared property type.
type TypeConversionError struct {
	Property string
	Path     string
	Expected reflect.Type
	Raw      any
	Cause    error
}

func (e *TypeConversionError) Error() string {
	msg := "nullbind: " + i18n.T(CodeTypeConversion, e.params()) + fmt.Sprintf(" at %s (raw %s)", e.Path, describeRaw(e.Raw))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TypeConversionError) Unwrap() error { return e.Cause }

// Issue converts the error into its Issue form.
func (e *TypeConversionError) Issue() Issue {
	return Issue{
		Path:     e.Path,
		Property: e.Property,
		Code:     CodeTypeConversion,
		Message:  i18n.T(CodeTypeConversion, e.params()),
		Cause:    e.Cause,
		Params:   map[string]any{"expected": typeName(e.Expected), "raw": e.Raw},
	}
}

func (e *TypeConversionError) params() map[string]string {
	return map[string]string{"property": e.Property, "expected": typeName(e.Expected)}
}

// SchemaMismatchError reports resolved values or strategy context that do not
// fit the schema being bound, such as a missing constructor slot.
type SchemaMismatchError struct {
	Property string
	Path     string
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	return "nullbind: " + i18n.T(CodeSchemaMismatch, map[string]string{"property": e.Property}) + ": " + e.Reason
}

// Issue converts the error into its Issue form.
func (e *SchemaMismatchError) Issue() Issue {
	return Issue{
		Path:     e.Path,
		Property: e.Property,
		Code:     CodeSchemaMismatch,
		Message:  i18n.T(CodeSchemaMismatch, map[string]string{"property": e.Property}),
		Hint:     e.Reason,
	}
}

// issuer is implemented by the binding errors above.
type issuer interface {
	error
	Issue() Issue
}

var (
	_ issuer = (*NullNotAllowedError)(nil)
	_ issuer = (*TypeConversionError)(nil)
	_ issuer = (*SchemaMismatchError)(nil)
)

// ErrorCode returns the issue code carried by err, or "" when err is nil or
// not produced by this package.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var is issuer
	if errors.As(err, &is) {
		return is.Issue().Code
	}
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		return iss[0].Code
	}
	return ""
}

// IssuesOf converts any error from this package into Issues. Foreign errors
// become a single parse_error issue.
func IssuesOf(err error) Issues {
	if err == nil {
		return nil
	}
	var is issuer
	if errors.As(err, &is) {
		return AppendIssues(nil, is.Issue())
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err})
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func describeRaw(v any) string {
	s := fmt.Sprintf("%v", v)
	if _, ok := v.(string); ok {
		s = fmt.Sprintf("%q", v)
	}
	const maxLen = 64
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
