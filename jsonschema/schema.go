package jsonschema

// Schema is a minimal JSON Schema representation used for export.
type Schema struct {
	// Core
	Title   string `json:"title,omitempty"`
	Type    string `json:"type,omitempty"`
	Format  string `json:"format,omitempty"`
	Default any    `json:"default,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty"`
}

// Nullable returns a schema accepting either s or null. Defaults stay on the
// outer schema so tooling still sees them.
func Nullable(s *Schema) *Schema {
	if s == nil {
		s = &Schema{}
	}
	inner := *s
	inner.Default = nil
	return &Schema{Default: s.Default, OneOf: []*Schema{&inner, {Type: "null"}}}
}
