package nullbind_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/nullbind"
)

type bean struct {
	StringVal string
	IntVal    int
	ListVal   []string
	BeanVal   *bean
}

func innerSchema(t testing.TB) *nullbind.Schema[bean] {
	t.Helper()
	s, err := nullbind.NewSetterSchema(
		func() bean { return bean{} },
		nullbind.Set("stringVal", func(b *bean, v string) { b.StringVal = v }),
		nullbind.Set("intVal", func(b *bean, v int) { b.IntVal = v }, nullbind.Nulls(nullbind.Fail)),
	)
	require.NoError(t, err)
	return s
}

// beanSchemas returns the setter and constructor form of one bean schema:
// stringVal and intVal reject null, listVal defaults to an empty list and
// follows listPolicy, beanVal is a nested bean.
func beanSchemas(t testing.TB, listPolicy nullbind.NullPolicy) (setter, ctor *nullbind.Schema[bean]) {
	t.Helper()
	inner := innerSchema(t)
	setter, err := nullbind.NewSetterSchema(
		func() bean { return bean{ListVal: []string{}} },
		nullbind.Set("stringVal", func(b *bean, v string) { b.StringVal = v }, nullbind.Nulls(nullbind.Fail)),
		nullbind.Set("intVal", func(b *bean, v int) { b.IntVal = v }, nullbind.Nulls(nullbind.Fail)),
		nullbind.Set("listVal", func(b *bean, v []string) { b.ListVal = v }, nullbind.Nulls(listPolicy)),
		nullbind.Set("beanVal", func(b *bean, v *bean) { b.BeanVal = v }, nullbind.WithSchema(inner)),
	)
	require.NoError(t, err)
	ctor, err = nullbind.NewConstructorSchema(
		func(a nullbind.Args) (bean, error) {
			return bean{
				StringVal: nullbind.Arg[string](a, 0),
				IntVal:    nullbind.Arg[int](a, 1),
				ListVal:   nullbind.Arg[[]string](a, 2),
				BeanVal:   nullbind.Arg[*bean](a, 3),
			}, nil
		},
		nullbind.Param[string]("stringVal", nullbind.Nulls(nullbind.Fail)),
		nullbind.Param[int]("intVal", nullbind.Nulls(nullbind.Fail)),
		nullbind.ParamDefault("listVal", func() []string { return []string{} }, nullbind.Nulls(listPolicy)),
		nullbind.Param[*bean]("beanVal", nullbind.WithSchema(inner)),
	)
	require.NoError(t, err)
	return setter, ctor
}

func bothStrategies(t *testing.T, listPolicy nullbind.NullPolicy, fn func(t *testing.T, s *nullbind.Schema[bean])) {
	setter, ctor := beanSchemas(t, listPolicy)
	t.Run("setter", func(t *testing.T) { fn(t, setter) })
	t.Run("constructor", func(t *testing.T) { fn(t, ctor) })
}

func TestBind_FailPolicyAcceptsAbsentKey(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		got, err := nullbind.BindJSON([]byte(`{}`), s)
		require.NoError(t, err)
		assert.Equal(t, 0, got.IntVal)
	})
}

func TestBind_FailPolicyRejectsExplicitNull(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		_, err := nullbind.BindJSON([]byte(`{"intVal": null}`), s)
		var nna *nullbind.NullNotAllowedError
		require.ErrorAs(t, err, &nna)
		assert.Equal(t, "intVal", nna.Property)
		assert.Equal(t, "/intVal", nna.Path)
		assert.Equal(t, nullbind.CodeNullNotAllowed, nullbind.ErrorCode(err))
	})
}

func TestBind_PartialDocumentKeepsDefaults(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		got, err := nullbind.BindJSON([]byte(`{"stringVal": "A"}`), s)
		require.NoError(t, err)
		assert.Equal(t, "A", got.StringVal)
		assert.Equal(t, 0, got.IntVal)
		assert.Equal(t, []string{}, got.ListVal)
		assert.Nil(t, got.BeanVal)
	})
}

func TestBind_SkipKeepsDefaultList(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		dec, err := nullbind.BindDocumentWithMeta(mustParse(t, `{"listVal": null}`), s)
		require.NoError(t, err)
		require.NotNil(t, dec.Value.ListVal)
		assert.Empty(t, dec.Value.ListVal)
		assert.True(t, dec.Presence.Has("/listVal", nullbind.PresenceSeen|nullbind.PresenceWasNull|nullbind.PresenceDefaultApplied))
		assert.False(t, dec.Presence.Has("/listVal", nullbind.PresenceEmptyApplied))
	})
}

func TestBind_DefaultEmptyAssignsEmptyList(t *testing.T) {
	bothStrategies(t, nullbind.DefaultEmpty, func(t *testing.T, s *nullbind.Schema[bean]) {
		dec, err := nullbind.BindDocumentWithMeta(mustParse(t, `{"listVal": null}`), s)
		require.NoError(t, err)
		require.NotNil(t, dec.Value.ListVal)
		assert.Empty(t, dec.Value.ListVal)
		assert.True(t, dec.Presence.Has("/listVal", nullbind.PresenceSeen|nullbind.PresenceWasNull|nullbind.PresenceEmptyApplied))
		assert.False(t, dec.Presence.Has("/listVal", nullbind.PresenceDefaultApplied))
	})
}

func TestBind_SetNullClearsDefault(t *testing.T) {
	bothStrategies(t, nullbind.SetNull, func(t *testing.T, s *nullbind.Schema[bean]) {
		got, err := nullbind.BindJSON([]byte(`{"listVal": null}`), s)
		require.NoError(t, err)
		assert.Nil(t, got.ListVal)
	})
}

func TestBind_AbsentNeverFails(t *testing.T) {
	policies := []nullbind.NullPolicy{nullbind.Skip, nullbind.Fail, nullbind.SetNull, nullbind.DefaultEmpty}
	docs := []string{`{}`, `{"other": null}`, `{"stringVal": "x"}`, `{"beanVal": {}}`}
	for _, p := range policies {
		for _, doc := range docs {
			t.Run(fmt.Sprintf("%s %s", p, doc), func(t *testing.T) {
				setter, ctor := beanSchemas(t, p)
				_, err := nullbind.BindJSON([]byte(doc), setter)
				require.NoError(t, err)
				_, err = nullbind.BindJSON([]byte(doc), ctor)
				require.NoError(t, err)
			})
		}
	}
}

func TestBind_StrategyEquivalence(t *testing.T) {
	docs := []string{
		`{}`,
		`{"stringVal": "A"}`,
		`{"stringVal": "A", "intVal": 7, "listVal": ["x", "y"]}`,
		`{"listVal": null}`,
		`{"listVal": []}`,
		`{"intVal": null}`,
		`{"stringVal": null}`,
		`{"intVal": "seven"}`,
		`{"intVal": 1.5}`,
		`{"listVal": [1]}`,
		`{"beanVal": null}`,
		`{"beanVal": {}}`,
		`{"beanVal": {"stringVal": "inner", "intVal": 3}}`,
		`{"beanVal": {"intVal": null}}`,
		`{"beanVal": {"stringVal": null}}`,
		`{"beanVal": []}`,
		`{"unknown": {"deep": [null]}}`,
	}
	policies := []nullbind.NullPolicy{nullbind.Skip, nullbind.Fail, nullbind.SetNull, nullbind.DefaultEmpty}
	for _, p := range policies {
		setter, ctor := beanSchemas(t, p)
		for _, doc := range docs {
			t.Run(fmt.Sprintf("%s %s", p, doc), func(t *testing.T) {
				d := mustParse(t, doc)
				a, errA := nullbind.BindDocument(d, setter)
				b, errB := nullbind.BindDocument(d, ctor)
				require.Equal(t, nullbind.ErrorCode(errA), nullbind.ErrorCode(errB), "setter err=%v constructor err=%v", errA, errB)
				if errA != nil {
					return
				}
				if diff := cmp.Diff(a, b); diff != "" {
					t.Fatalf("setter and constructor targets differ (-setter +constructor):\n%s", diff)
				}
			})
		}
	}
}

func TestBind_SkipNullEqualsAbsent(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		withNull, err := nullbind.BindJSON([]byte(`{"stringVal": "A", "listVal": null}`), s)
		require.NoError(t, err)
		without, err := nullbind.BindJSON([]byte(`{"stringVal": "A"}`), s)
		require.NoError(t, err)
		if diff := cmp.Diff(without, withNull); diff != "" {
			t.Fatalf("skip null differs from absent (-absent +null):\n%s", diff)
		}
	})
}

func TestBind_PresentValuesRoundTrip(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		got, err := nullbind.BindJSON([]byte(`{"stringVal": "héllo", "intVal": -42, "listVal": ["a", "", "c"]}`), s)
		require.NoError(t, err)
		want := bean{StringVal: "héllo", IntVal: -42, ListVal: []string{"a", "", "c"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected target (-want +got):\n%s", diff)
		}
	})
}

func TestBind_NestedSchemaAppliesPolicies(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		got, err := nullbind.BindJSON([]byte(`{"beanVal": {"stringVal": "inner"}}`), s)
		require.NoError(t, err)
		require.NotNil(t, got.BeanVal)
		assert.Equal(t, "inner", got.BeanVal.StringVal)

		_, err = nullbind.BindJSON([]byte(`{"beanVal": {"intVal": null}}`), s)
		var nna *nullbind.NullNotAllowedError
		require.ErrorAs(t, err, &nna)
		assert.Equal(t, "/beanVal/intVal", nna.Path)

		_, err = nullbind.BindJSON([]byte(`{"beanVal": "not an object"}`), s)
		var tce *nullbind.TypeConversionError
		require.ErrorAs(t, err, &tce)
		assert.Equal(t, "/beanVal", tce.Path)
	})
}

type part struct{ S string }

type assembly struct {
	In     *part
	IntVal int
}

func TestBind_NestedTargetsBuiltOnlyAtBind(t *testing.T) {
	calls := 0
	inner := nullbind.MustSchema(nullbind.NewConstructorSchema(
		func(a nullbind.Args) (part, error) {
			calls++
			return part{S: nullbind.Arg[string](a, 0)}, nil
		},
		nullbind.Param[string]("s"),
	))
	outer := nullbind.MustSchema(nullbind.NewSetterSchema(
		func() assembly { return assembly{} },
		nullbind.Set("in", func(a *assembly, v *part) { a.In = v }, nullbind.WithSchema(inner)),
		nullbind.Set("intVal", func(a *assembly, v int) { a.IntVal = v }, nullbind.Nulls(nullbind.Fail)),
	))

	_, err := outer.Resolve(mustParse(t, `{"in": {"s": "x"}, "intVal": null}`))
	var nna *nullbind.NullNotAllowedError
	require.ErrorAs(t, err, &nna)
	assert.Equal(t, 0, calls, "a failing document must not reach any constructor")

	_, err = nullbind.BindJSON([]byte(`{"in": {"s": "x"}, "intVal": null}`), outer)
	require.ErrorAs(t, err, &nna)
	assert.Equal(t, 0, calls)

	values, err := outer.Resolve(mustParse(t, `{"in": {"s": "x"}, "intVal": 2}`))
	require.NoError(t, err)
	assert.Equal(t, 0, calls, "resolution alone builds nothing")
	assert.Equal(t, map[string]any{"s": "x"}, values[0].Final)

	got, err := outer.Bind(values)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, assembly{In: &part{S: "x"}, IntVal: 2}, got)
}

func TestBind_NestedPresence(t *testing.T) {
	setter, _ := beanSchemas(t, nullbind.Skip)
	dec, err := nullbind.BindDocumentWithMeta(mustParse(t, `{"beanVal": {"stringVal": null}}`), setter)
	require.NoError(t, err)
	assert.True(t, dec.Presence.Has("/", nullbind.PresenceSeen))
	assert.True(t, dec.Presence.Has("/beanVal", nullbind.PresenceSeen))
	assert.True(t, dec.Presence.Has("/beanVal/stringVal", nullbind.PresenceWasNull|nullbind.PresenceDefaultApplied))
	assert.Equal(t, nullbind.PresenceDefaultApplied, dec.Presence["/beanVal/intVal"])
	assert.Equal(t, nullbind.PresenceDefaultApplied, dec.Presence["/intVal"])
}

func TestBind_TypeConversionError(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		_, err := nullbind.BindJSON([]byte(`{"intVal": "seven"}`), s)
		var tce *nullbind.TypeConversionError
		require.ErrorAs(t, err, &tce)
		assert.Equal(t, "intVal", tce.Property)
		assert.Equal(t, "/intVal", tce.Path)
		assert.Equal(t, "int", tce.Expected.String())
		assert.Equal(t, "seven", tce.Raw)
		assert.Equal(t, nullbind.CodeTypeConversion, nullbind.ErrorCode(err))
	})
}

func TestBind_ConstructorErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	s, err := nullbind.NewConstructorSchema(
		func(a nullbind.Args) (bean, error) { return bean{}, boom },
		nullbind.Param[string]("stringVal"),
	)
	require.NoError(t, err)
	_, err = nullbind.BindJSON([]byte(`{"stringVal": "A"}`), s)
	require.ErrorIs(t, err, boom)
}

func TestBind_ValuesFromAnotherSchemaMismatch(t *testing.T) {
	setter, ctor := beanSchemas(t, nullbind.Skip)
	inner := innerSchema(t)
	values, err := inner.Resolve(mustParse(t, `{"stringVal": "A"}`))
	require.NoError(t, err)

	for _, s := range []*nullbind.Schema[bean]{setter, ctor} {
		_, err := s.Bind(values)
		var sme *nullbind.SchemaMismatchError
		require.ErrorAs(t, err, &sme, s.Strategy().String())
		assert.Equal(t, nullbind.CodeSchemaMismatch, nullbind.ErrorCode(err))
	}

	outer, err := setter.Resolve(mustParse(t, `{}`))
	require.NoError(t, err)
	_, err = inner.Bind(outer)
	var sme *nullbind.SchemaMismatchError
	require.ErrorAs(t, err, &sme)
	assert.Equal(t, "listVal", sme.Property)
}

func TestBind_ConcurrentUse(t *testing.T) {
	setter, ctor := beanSchemas(t, nullbind.DefaultEmpty)
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := setter
			if i%2 == 1 {
				s = ctor
			}
			doc := fmt.Sprintf(`{"stringVal": "s%d", "intVal": %d, "listVal": null}`, i, i)
			got, err := nullbind.BindJSON([]byte(doc), s)
			if err != nil {
				errs <- err
				return
			}
			if got.IntVal != i || got.StringVal != fmt.Sprintf("s%d", i) || got.ListVal == nil {
				errs <- fmt.Errorf("goroutine %d: unexpected %+v", i, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestBind_DefaultsAreFreshPerCall(t *testing.T) {
	bothStrategies(t, nullbind.Skip, func(t *testing.T, s *nullbind.Schema[bean]) {
		first, err := nullbind.BindJSON([]byte(`{}`), s)
		require.NoError(t, err)
		first.ListVal = append(first.ListVal, "mutated")
		second, err := nullbind.BindJSON([]byte(`{}`), s)
		require.NoError(t, err)
		assert.Empty(t, second.ListVal)
	})
}

func mustParse(t testing.TB, doc string) nullbind.Object {
	t.Helper()
	o, err := nullbind.ParseJSON([]byte(doc))
	require.NoError(t, err)
	return o
}
