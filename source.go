package nullbind

import (
	"bytes"
	"errors"
	"io"

	eng "github.com/reoring/nullbind/internal/engine"
	"github.com/reoring/nullbind/source/gojson"
	yamlsrc "github.com/reoring/nullbind/source/yaml"
)

// ParseJSON parses a JSON object into a Document. When several ParseOpt
// values are given the last one wins; with none, DefaultParseOpt applies.
func ParseJSON(data []byte, opts ...ParseOpt) (Object, error) {
	opt := pickOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, truncated()
	}
	return decodeJSON(gojson.NewBytes(data), opt)
}

// ParseJSONReader parses a JSON object read from r.
func ParseJSONReader(r io.Reader, opts ...ParseOpt) (Object, error) {
	opt := pickOpt(opts)
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			return nil, AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err})
		}
		if int64(len(data)) > opt.MaxBytes {
			return nil, truncated()
		}
		r = bytes.NewReader(data)
	}
	return decodeJSON(gojson.NewReader(r), opt)
}

// ParseYAML parses a YAML mapping into a Document. null, ~ and empty values
// are explicit nulls; an empty document is an empty object.
func ParseYAML(data []byte, opts ...ParseOpt) (Object, error) {
	opt := pickOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, truncated()
	}
	m, err := yamlsrc.DecodeObject(data, yamlsrc.Options{
		OnDuplicate: toEngineDup(opt.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		IssueSink:   forwardIssues(opt.IssueSink),
	})
	if err != nil {
		return nil, toIssues(err)
	}
	return Object(m), nil
}

// BindJSON parses data and binds it against s.
func BindJSON[T any](data []byte, s *Schema[T], opts ...ParseOpt) (T, error) {
	doc, err := ParseJSON(data, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return BindDocument(doc, s)
}

// BindYAML parses data and binds it against s.
func BindYAML[T any](data []byte, s *Schema[T], opts ...ParseOpt) (T, error) {
	doc, err := ParseYAML(data, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return BindDocument(doc, s)
}

func decodeJSON(src eng.TokenSource, opt ParseOpt) (Object, error) {
	enforced := eng.WrapWithEnforcement(src, eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   forwardIssues(opt.IssueSink),
	})
	m, err := eng.DecodeObject(enforced)
	if err != nil {
		return nil, toIssues(err)
	}
	return Object(m), nil
}

func pickOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return DefaultParseOpt
	}
	return opts[len(opts)-1]
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

func forwardIssues(sink func(Issue)) func(eng.SimpleIssue) {
	if sink == nil {
		return nil
	}
	return func(si eng.SimpleIssue) {
		sink(Issue{Path: si.Path, Code: si.Code, Message: si.Message})
	}
}

func truncated() Issues {
	return AppendIssues(nil, Issue{Path: "/", Code: CodeTruncated, Message: "max bytes exceeded"})
}

func toIssues(err error) Issues {
	var ie eng.IssueError
	switch {
	case errors.As(err, &ie):
		return AppendIssues(nil, Issue{Path: ie.Path, Code: ie.Code, Message: ie.Message})
	case errors.Is(err, eng.ErrNotObject):
		return AppendIssues(nil, Issue{Path: "/", Code: CodeInvalidType, Message: err.Error(), Hint: "expected object", Cause: err})
	default:
		return AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err})
	}
}
