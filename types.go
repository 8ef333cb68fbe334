package nullbind

import (
	"fmt"
	"strings"
)

// Severity expresses how an input anomaly is treated.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// ParseOpt bundles document parsing options.
type ParseOpt struct {
	OnDuplicateKey Severity // Duplicate object keys; the last value wins unless Error.
	MaxDepth       int      // Maximum container nesting; 0 disables the check.
	MaxBytes       int64    // Maximum input size; 0 disables the check.
	// IssueSink receives warnings (duplicate keys under Warn) and the issue
	// behind a fatal enforcement error.
	IssueSink func(Issue)
}

// DefaultParseOpt is used when no ParseOpt is supplied: duplicate keys are
// rejected so a document cannot carry both a null and a value for one key.
var DefaultParseOpt = ParseOpt{OnDuplicateKey: Error, MaxDepth: 512}

func (s Severity) String() string {
	switch s {
	case Ignore:
		return "ignore"
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity accepts "ignore", "warn" and "error".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return Ignore, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return Error, fmt.Errorf("nullbind: unknown severity %q", s)
}
