package gojson

import (
	"io"
	"strings"
	"testing"

	eng "github.com/reoring/nullbind/internal/engine"
)

func TestSource_TokenKinds(t *testing.T) {
	src := NewBytes([]byte(`{"k":"v","n":-1.5e3,"b":false,"z":null,"a":[{"x":"y"},"s"]}`))
	want := []eng.Kind{
		eng.KindBeginObject,
		eng.KindKey, eng.KindString,
		eng.KindKey, eng.KindNumber,
		eng.KindKey, eng.KindBool,
		eng.KindKey, eng.KindNull,
		eng.KindKey, eng.KindBeginArray,
		eng.KindBeginObject, eng.KindKey, eng.KindString, eng.KindEndObject,
		eng.KindString,
		eng.KindEndArray,
		eng.KindEndObject,
	}
	for i, k := range want {
		tok, err := src.NextToken()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Kind != k {
			t.Fatalf("token %d: got kind %d, want %d", i, tok.Kind, k)
		}
		if tok.Kind == eng.KindNumber && tok.Number != "-1.5e3" && tok.Number != "-1500" {
			t.Fatalf("unexpected number text %q", tok.Number)
		}
	}
	if _, err := src.NextToken(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSource_StringValueAfterKey(t *testing.T) {
	// A string value must not be mistaken for the next key.
	m, err := eng.DecodeObject(NewReader(strings.NewReader(`{"a":"b","c":"d"}`)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["a"] != "b" || m["c"] != "d" {
		t.Fatalf("got %v", m)
	}
}

func TestSource_Location(t *testing.T) {
	data := `{"a":1}`
	src := NewBytes([]byte(data))
	for {
		if _, err := src.NextToken(); err != nil {
			break
		}
	}
	if loc := src.Location(); loc <= 0 || loc > int64(len(data)) {
		t.Fatalf("location %d out of range", loc)
	}
}
