// Package yaml turns YAML documents into the same object tree the JSON
// engine produces, so YAML input binds with identical absent/null semantics.
package yaml

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	y "gopkg.in/yaml.v3"

	eng "github.com/reoring/nullbind/internal/engine"
)

// Options mirror the engine enforcement knobs that apply to YAML input.
type Options struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	IssueSink   func(eng.SimpleIssue)
}

// DuplicateStrictness re-exports the engine setting for callers of this package.
type DuplicateStrictness = eng.DuplicateStrictness

// DecodeObject parses a single YAML document whose root is a mapping. An
// empty document decodes to an empty object. Scalars tagged !!null (null, ~
// or an empty value) decode to nil, numbers to json.Number.
func DecodeObject(data []byte, opt Options) (map[string]any, error) {
	var doc y.Node
	if err := y.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || (doc.Kind == y.DocumentNode && len(doc.Content) == 0) {
		return map[string]any{}, nil
	}
	root := &doc
	if root.Kind == y.DocumentNode {
		root = root.Content[0]
	}
	if root.Kind == y.AliasNode {
		root = root.Alias
	}
	if root.Kind != y.MappingNode {
		return nil, eng.ErrNotObject
	}
	c := &converter{opt: opt}
	v, err := c.mapping(root, "", 1)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// NodeValue converts an already parsed node into the object tree form. Null
// scalars and zero nodes yield nil; duplicate keys keep the last value.
func NodeValue(n *y.Node) (any, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	if n.Kind == y.DocumentNode {
		if len(n.Content) == 0 {
			return nil, nil
		}
		n = n.Content[0]
	}
	return (&converter{}).value(n, "", 1)
}

// converter walks one node tree. It counts converted nodes, and those reached
// through an alias, to bound alias expansion the way yaml.v3 bounds it when
// decoding into Go values.
type converter struct {
	opt        Options
	decoded    int
	aliased    int
	aliasDepth int
}

var errAliasExpansion = eng.IssueError{SimpleIssue: eng.SimpleIssue{Code: "parse_error", Path: "/", Message: "alias expansion limit exceeded"}}

// allowedAliasRatio mirrors yaml.v3: small documents may be almost entirely
// aliases, large ones only a tenth.
func allowedAliasRatio(decoded int) float64 {
	const low, high = 400000, 4000000
	switch {
	case decoded <= low:
		return 0.99
	case decoded >= high:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decoded-low)/float64(high-low))
	}
}

func (c *converter) count() error {
	c.decoded++
	if c.aliasDepth > 0 {
		c.aliased++
	}
	if c.aliased > 100 && c.decoded > 1000 && float64(c.aliased)/float64(c.decoded) > allowedAliasRatio(c.decoded) {
		return errAliasExpansion
	}
	return nil
}

func (c *converter) value(n *y.Node, path string, depth int) (any, error) {
	if err := c.count(); err != nil {
		return nil, err
	}
	switch n.Kind {
	case y.AliasNode:
		c.aliasDepth++
		defer func() { c.aliasDepth-- }()
		return c.value(n.Alias, path, depth)
	case y.MappingNode:
		if err := c.checkDepth(path, depth); err != nil {
			return nil, err
		}
		return c.mapping(n, path, depth)
	case y.SequenceNode:
		if err := c.checkDepth(path, depth); err != nil {
			return nil, err
		}
		arr := make([]any, 0, len(n.Content))
		for i, it := range n.Content {
			v, err := c.value(it, path+"/"+strconv.Itoa(i), depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case y.ScalarNode:
		return scalar(n, path)
	default:
		return nil, fmt.Errorf("yaml: unsupported node kind %d at %s", n.Kind, rooted(path))
	}
}

func (c *converter) mapping(n *y.Node, path string, depth int) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if kn.Kind != y.ScalarNode {
			return nil, fmt.Errorf("yaml: non-scalar key at %s (line %d)", rooted(path), kn.Line)
		}
		key := kn.Value
		kp := path + "/" + eng.EscapePointerToken(key)
		if _, dup := out[key]; dup && c.opt.OnDuplicate != eng.DupIgnore {
			si := eng.SimpleIssue{Code: "duplicate_key", Path: kp, Message: "key '" + key + "' duplicated"}
			if c.opt.IssueSink != nil {
				c.opt.IssueSink(si)
			}
			if c.opt.OnDuplicate == eng.DupError {
				return nil, eng.IssueError{SimpleIssue: si}
			}
		}
		v, err := c.value(vn, kp, depth+1)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (c *converter) checkDepth(path string, depth int) error {
	if c.opt.MaxDepth > 0 && depth > c.opt.MaxDepth {
		return eng.IssueError{SimpleIssue: eng.SimpleIssue{Code: "parse_error", Path: rooted(path), Message: "max depth exceeded"}}
	}
	return nil
}

func scalar(n *y.Node, path string) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			var u uint64
			if uerr := n.Decode(&u); uerr != nil {
				return nil, err
			}
			return json.Number(strconv.FormatUint(u, 10)), nil
		}
		return json.Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("yaml: non-finite number %q at %s", n.Value, rooted(path))
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		return n.Value, nil
	}
}

func rooted(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
