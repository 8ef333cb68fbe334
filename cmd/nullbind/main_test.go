package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/nullbind"
)

const declYAML = `name: Bean
strategy: setter
properties:
  - name: intVal
    type: int
    nulls: fail
  - name: listVal
    type: strings
    nulls: default_empty
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfg := config{MaxDepth: 512, DuplicateKeys: "error"}
	root := newRootCmd(cfg, zerolog.Nop())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBindCommand(t *testing.T) {
	schema := writeFile(t, "bean.yaml", declYAML)
	out, err := run(t, `{"intVal": 3, "listVal": null}`, "bind", "--schema", schema)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(out), &got))
	assert.Equal(t, float64(3), got["intVal"])
	assert.Equal(t, []any{}, got["listVal"])
}

func TestBindCommand_MetaAndYAML(t *testing.T) {
	schema := writeFile(t, "bean.yaml", declYAML)
	doc := writeFile(t, "doc.yml", "listVal: ~\n")
	out, err := run(t, "", "bind", "--schema", schema, "--meta", "--strategy", "constructor", doc)
	require.NoError(t, err)

	var got struct {
		Value    map[string]any    `json:"value"`
		Presence map[string]string `json:"presence"`
	}
	require.NoError(t, gojson.Unmarshal([]byte(out), &got))
	assert.Equal(t, "seen|was_null|empty_applied", got.Presence["/listVal"])
	assert.Equal(t, "default_applied", got.Presence["/intVal"])
}

func TestBindCommand_NullRejected(t *testing.T) {
	schema := writeFile(t, "bean.yaml", declYAML)
	_, err := run(t, `{"intVal": null}`, "bind", "--schema", schema)
	require.Error(t, err)
	assert.Equal(t, nullbind.CodeNullNotAllowed, nullbind.ErrorCode(err))
}

func TestBindCommand_DuplicateKeys(t *testing.T) {
	schema := writeFile(t, "bean.yaml", declYAML)
	_, err := run(t, `{"intVal": 1, "intVal": 2}`, "bind", "--schema", schema)
	assert.Equal(t, nullbind.CodeDuplicateKey, nullbind.ErrorCode(err))

	out, err := run(t, `{"intVal": 1, "intVal": 2}`, "bind", "--schema", schema, "--duplicate-keys", "warn")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(out), &got))
	assert.Equal(t, float64(2), got["intVal"])

	_, err = run(t, `{}`, "bind", "--schema", schema, "--duplicate-keys", "sometimes")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	schema := writeFile(t, "bean.yaml", declYAML)
	out, err := run(t, `{"listVal": ["a"]}`, "resolve", "--schema", schema, "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PROVENANCE")
	assert.Regexp(t, `^/intVal\s+fail\s+absent\s+default_applied\s+\(skip\)$`, lines[1])
	assert.Regexp(t, `^/listVal\s+default_empty\s+present\s+seen\s+\["a"\]$`, lines[2])
}

func TestJSONSchemaCommand(t *testing.T) {
	schema := writeFile(t, "bean.yaml", declYAML)
	out, err := run(t, "", "jsonschema", "--schema", schema)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Bean", got["title"])
	props := got["properties"].(map[string]any)
	assert.Equal(t, "integer", props["intVal"].(map[string]any)["type"])
	assert.Contains(t, props["listVal"], "oneOf")
}

func TestCommands_RequireSchema(t *testing.T) {
	_, err := run(t, `{}`, "bind")
	assert.Error(t, err)
	_, err = run(t, `{}`, "bind", "--schema", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("NULLBIND_MAX_DEPTH", "7")
	t.Setenv("NULLBIND_DUPLICATE_KEYS", "warn")
	t.Setenv("NULLBIND_LOG_FORMAT", "json")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxDepth)
	assert.Equal(t, "warn", cfg.DuplicateKeys)
	assert.Equal(t, "en", cfg.Lang)
	assert.Equal(t, int64(0), cfg.MaxBytes)

	logger := newLogger(cfg)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestBindHandler(t *testing.T) {
	s, err := loadSchema(writeFile(t, "bean.yaml", declYAML), "")
	require.NoError(t, err)
	h, err := newBindHandler(s, config{MaxDepth: 512, DuplicateKeys: "error"}, zerolog.Nop())
	require.NoError(t, err)

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body)))
		return rec
	}

	rec := post(`{"intVal": 5, "listVal": null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, gojson.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(5), got["intVal"])
	assert.Equal(t, []any{}, got["listVal"])

	rec = post(`{"intVal": null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), nullbind.CodeNullNotAllowed)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bind", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBindHandler_RejectsBadDuplicateKeys(t *testing.T) {
	s, err := loadSchema(writeFile(t, "bean.yaml", declYAML), "")
	require.NoError(t, err)
	_, err = newBindHandler(s, config{MaxDepth: 512, DuplicateKeys: "sometimes"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NULLBIND_DUPLICATE_KEYS")

	root := newRootCmd(config{MaxDepth: 512, DuplicateKeys: "sometimes", Addr: "127.0.0.1:0"}, zerolog.Nop())
	root.SetArgs([]string{"serve", "--schema", writeFile(t, "other.yaml", declYAML)})
	root.SetOut(&bytes.Buffer{})
	require.Error(t, root.Execute())
}
