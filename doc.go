// Package nullbind binds parsed key-value documents onto typed Go targets
// while keeping three states apart for every declared property:
//
//   - Absent: the key is not in the document.
//   - Null: the key is mapped to an explicit null.
//   - Present: the key is mapped to a concrete value.
//
// A per-property NullPolicy (Skip, Fail, SetNull, DefaultEmpty) decides what
// an explicit null does. Absent keys never consult the policy, so a Fail
// property rejects {"intVal": null} but accepts {}.
//
// Targets are materialized by one of two strategies with identical
// observable results: a SetterStrategy schema starts from a factory value and
// assigns fields one by one; a ConstructorStrategy schema fills every
// positional slot, substituting defaults for skipped properties, and
// constructs the target in one call.
//
// Typical usage:
//
//	var beanSchema = nullbind.MustSchema(nullbind.NewSetterSchema(
//		func() Bean { return Bean{ListVal: []string{}} },
//		nullbind.Set("stringVal", func(b *Bean, v string) { b.StringVal = v }, nullbind.Nulls(nullbind.Fail)),
//		nullbind.Set("intVal", func(b *Bean, v int) { b.IntVal = v }, nullbind.Nulls(nullbind.Fail)),
//		nullbind.Set("listVal", func(b *Bean, v []string) { b.ListVal = v }),
//	))
//
//	bean, err := nullbind.BindJSON(data, beanSchema)
//
// Schemas are immutable after construction and may be shared by any number
// of goroutines. Resolution and binding never block and never log; errors are
// *NullNotAllowedError, *TypeConversionError or *SchemaMismatchError for
// binding, and Issues for document parsing.
package nullbind
