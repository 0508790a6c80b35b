package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	schemas map[string]string
	err     error
	calls   []string
}

func (f *fakeRegistry) FetchSchema(_ context.Context, subject, version string) (string, error) {
	f.calls = append(f.calls, subject+"@"+version)
	if f.err != nil {
		return "", f.err
	}
	return f.schemas[subject], nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInputName(t *testing.T) {
	tests := []struct {
		in   Input
		want string
		str  string
	}{
		{FileInput("schemas/user.avsc"), "user", "schemas/user.avsc"},
		{FileInput("order.v2.avsc"), "order.v2", "order.v2.avsc"},
		{SubjectInput("orders-value", ""), "orders-value", "orders-value@latest"},
		{SubjectInput("orders-value", "4"), "orders-value", "orders-value@4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Name())
		assert.Equal(t, tt.str, tt.in.String())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "user.avsc", `{"type": "string"}`)

	l := &Loader{}
	got, err := l.Load(context.Background(), FileInput(path))
	require.NoError(t, err)
	assert.Equal(t, `{"type": "string"}`, got)
}

func TestLoadMissingFile(t *testing.T) {
	l := &Loader{}
	_, err := l.Load(context.Background(), FileInput(filepath.Join(t.TempDir(), "missing.avsc")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSubject(t *testing.T) {
	reg := &fakeRegistry{schemas: map[string]string{"orders-value": `"long"`}}
	l := &Loader{Registry: reg}

	got, err := l.Load(context.Background(), SubjectInput("orders-value", "2"))
	require.NoError(t, err)
	assert.Equal(t, `"long"`, got)
	assert.Equal(t, []string{"orders-value@2"}, reg.calls)
}

func TestLoadSubjectErrors(t *testing.T) {
	boom := errors.New("registry down")
	l := &Loader{Registry: &fakeRegistry{err: boom}}

	_, err := l.Load(context.Background(), SubjectInput("orders-value", ""))
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, boom)

	l = &Loader{}
	_, err = l.Load(context.Background(), SubjectInput("orders-value", ""))
	assert.ErrorIs(t, err, ErrFetch)

	_, err = l.Load(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrFetch)
}

func TestLoadLenient(t *testing.T) {
	const sloppy = `{'type': 'record', 'name': 'R', 'fields': [{'name': 'id', 'type': 'int'},],}`
	path := writeFile(t, "r.avsc", sloppy)

	strict := &Loader{}
	got, err := strict.Load(context.Background(), FileInput(path))
	require.NoError(t, err)
	assert.Equal(t, sloppy, got, "strict loading returns the text untouched")

	lenient := &Loader{Lenient: true}
	got, err = lenient.Load(context.Background(), FileInput(path))
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(got)), "repaired text: %s", got)

	var doc struct {
		Type   string `json:"type"`
		Name   string `json:"name"`
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &doc))
	assert.Equal(t, "record", doc.Type)
	assert.Equal(t, "R", doc.Name)
	require.Len(t, doc.Fields, 1)
	assert.Equal(t, "id", doc.Fields[0].Name)
}

func TestLoadLenientKeepsValidJSON(t *testing.T) {
	const text = "{\n  \"type\": \"string\"\n}"
	path := writeFile(t, "s.avsc", text)

	l := &Loader{Lenient: true}
	got, err := l.Load(context.Background(), FileInput(path))
	require.NoError(t, err)
	assert.Equal(t, text, got)
}
