package nullbind

// Document is the parsed key-value view the resolver reads from.
// IsNull and Raw are only meaningful when Has reports true.
type Document interface {
	Has(name string) bool
	IsNull(name string) bool
	Raw(name string) any
}

// Object is a Document over a decoded object tree. A key mapped to nil is an
// explicit null; a missing key is absent.
type Object map[string]any

var _ Document = Object(nil)

func (o Object) Has(name string) bool {
	_, ok := o[name]
	return ok
}

func (o Object) IsNull(name string) bool {
	v, ok := o[name]
	return ok && v == nil
}

func (o Object) Raw(name string) any { return o[name] }
