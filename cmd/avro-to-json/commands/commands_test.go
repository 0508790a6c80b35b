package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takumiyoshikawa/avro-to-json/internal/converter"
	"github.com/takumiyoshikawa/avro-to-json/internal/source"
)

const userSchema = `{
  "type": "record",
  "name": "User",
  "namespace": "com.example",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "nick", "type": ["null", "string"], "default": null},
    {"name": "created", "type": {"type": "long", "logicalType": "timestamp-millis"}}
  ]
}`

const optionalOnlySchema = `{"type": "record", "name": "Opt", "fields": [
  {"name": "a", "type": ["null", "int"]}
]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &doc), "output: %s", s)
	return doc
}

func TestConvertFileToStdout(t *testing.T) {
	path := writeFile(t, t.TempDir(), "user.avsc", userSchema)

	out, err := execute(t, "convert", path)
	require.NoError(t, err)

	doc := decode(t, out)
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", doc["$schema"])
	assert.Equal(t, "User", doc["title"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.Equal(t, []any{"id", "created"}, doc["required"])

	props := doc["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string", "default": nil}, props["nick"])
	assert.Equal(t, "java.time.Instant", props["created"].(map[string]any)["javaType"])
}

func TestConvertStrictWithFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "opt.avsc", optionalOnlySchema)

	out, err := execute(t, "convert", "--strict", "--omit-empty-required", "--draft", "draft-2020-12", path)
	require.NoError(t, err)

	doc := decode(t, out)
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", doc["$schema"])
	assert.NotContains(t, doc, "required")
	assert.NotContains(t, doc, "additionalProperties")
	a := doc["properties"].(map[string]any)["a"].(map[string]any)
	assert.Equal(t, []any{"null", "integer"}, a["type"])

	out, err = execute(t, "convert", "--strict", path)
	require.NoError(t, err)
	assert.Equal(t, []any{}, decode(t, out)["required"])
}

func TestConvertDisablesPojoToggle(t *testing.T) {
	path := writeFile(t, t.TempDir(), "user.avsc", userSchema)

	out, err := execute(t, "convert", "--java-type-hints=false", path)
	require.NoError(t, err)

	created := decode(t, out)["properties"].(map[string]any)["created"].(map[string]any)
	assert.NotContains(t, created, "javaType")
	assert.Equal(t, "utc-millisec", created["format"])
}

func TestConvertUnknownDraftFallsBack(t *testing.T) {
	path := writeFile(t, t.TempDir(), "user.avsc", userSchema)

	out, err := execute(t, "convert", "--draft", "draft-04", path)
	require.NoError(t, err)
	assert.Equal(t, converter.Draft07.SchemaURL(), decode(t, out)["$schema"])
}

func TestConvertWithProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "opt.avsc", optionalOnlySchema)
	profile := writeFile(t, dir, "profile.yml", `preset: strict
draft: draft-2020-12
overrides:
  additional_properties_false: true
`)

	out, err := execute(t, "convert", "--config", profile, path)
	require.NoError(t, err)

	doc := decode(t, out)
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", doc["$schema"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.Equal(t, []any{}, doc["required"])

	bad := writeFile(t, dir, "bad.yml", "preset: loose\n")
	_, err = execute(t, "convert", "--config", bad, path)
	assert.Error(t, err)
}

func TestConvertOutputFiles(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.avsc", userSchema)
	opt := writeFile(t, dir, "opt.avsc", optionalOnlySchema)

	outDir := filepath.Join(dir, "out")
	out, err := execute(t, "convert", "--jobs", "2", "--output-dir", outDir, user, opt)
	require.NoError(t, err)
	assert.Empty(t, out)

	for _, name := range []string{"user.schema.json", "opt.schema.json"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Contains(t, decode(t, string(data)), "$schema")
	}

	single := filepath.Join(dir, "nested", "user.json")
	_, err = execute(t, "convert", "-o", single, user)
	require.NoError(t, err)
	data, err := os.ReadFile(single)
	require.NoError(t, err)
	assert.Equal(t, "User", decode(t, string(data))["title"])
}

func TestConvertInputErrors(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.avsc", userSchema)
	other := filepath.Join(dir, "other")
	require.NoError(t, os.Mkdir(other, 0o755))
	dup := writeFile(t, other, "user.avsc", userSchema)

	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"convert"}},
		{"files and subjects", []string{"convert", "--subject", "a-value", user}},
		{"output with several inputs", []string{"convert", "-o", filepath.Join(dir, "x.json"), user, dup}},
		{"output and output dir", []string{"convert", "-o", "x.json", "--output-dir", dir, user}},
		{"colliding output names", []string{"convert", "--output-dir", dir, user, dup}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestConvertFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "convert", filepath.Join(dir, "missing.avsc"))
	assert.ErrorIs(t, err, source.ErrFetch)

	bad := writeFile(t, dir, "bad.avsc", `{"name": "NoType"}`)
	_, err = execute(t, "convert", bad)
	assert.ErrorIs(t, err, converter.ErrSchemaParse)

	sloppy := writeFile(t, dir, "sloppy.avsc", `{'type': 'string',}`)
	_, err = execute(t, "convert", sloppy)
	assert.ErrorIs(t, err, converter.ErrSchemaParse)

	out, err := execute(t, "convert", "--lenient", sloppy)
	require.NoError(t, err)
	assert.Equal(t, "string", decode(t, out)["type"])
}

func TestConvertRegistrySubjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subjects/users-value/versions/2/schema":
			user, pass, _ := r.BasicAuth()
			assert.Equal(t, "alice", user)
			assert.Equal(t, "secret", pass)
			_, _ = w.Write([]byte(userSchema))
		case "/subjects/opt-value/versions/2/schema":
			_, _ = w.Write([]byte(optionalOnlySchema))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":40401,"message":"Subject not found."}`))
		}
	}))
	defer srv.Close()

	t.Setenv(envRegistryURL, srv.URL)
	t.Setenv(envRegistryUsername, "alice")
	t.Setenv(envRegistryPassword, "secret")

	outDir := t.TempDir()
	_, err := execute(t, "convert", "--subject", "users-value", "--subject", "opt-value", "--version", "2", "--output-dir", outDir)
	require.NoError(t, err)
	for _, name := range []string{"users-value.schema.json", "opt-value.schema.json"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err)
	}

	_, err = execute(t, "convert", "--registry", srv.URL, "--subject", "missing-value")
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrFetch)
	assert.Contains(t, err.Error(), "404")

	_, err = execute(t, "convert", "--subject", "users-value", "--version", "zero")
	assert.Error(t, err)
}

func TestConvertSubjectNeedsRegistry(t *testing.T) {
	t.Setenv(envRegistryURL, "")

	_, err := execute(t, "convert", "--subject", "users-value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), envRegistryURL)
}

func TestProfileSchemaCommand(t *testing.T) {
	out, err := execute(t, "profile-schema")
	require.NoError(t, err)
	assert.Contains(t, decode(t, out), "$defs")

	path := filepath.Join(t.TempDir(), "schemas", "profile.schema.json")
	out, err = execute(t, "profile-schema", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "avro-to-json dev")
}

func TestLoadEnvFile(t *testing.T) {
	const key = "AVRO_TO_JSON_TEST_ENV_FILE"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	assert.NoError(t, loadEnvFile(filepath.Join(dir, "absent.env")))

	path := writeFile(t, dir, ".env", key+"=from-file\n")
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv(key))
}
