package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
)

func runCLI(t *testing.T, args ...string) []byte {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := exec.Command("go", append([]string{"run", "../cmd/avro-to-json"}, args...)...)
	cmd.Dir = "."
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		t.Fatalf("avro-to-json %v failed: %v\nstderr:\n%s", args, err, stderr.String())
	}
	return stdout.Bytes()
}

func TestE2EConvertFile(t *testing.T) {
	out := runCLI(t, "convert", "testdata/user.avsc")

	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not JSON: %v\noutput:\n%s", err, out)
	}

	if doc["$schema"] != "http://json-schema.org/draft-07/schema#" {
		t.Errorf("$schema = %v", doc["$schema"])
	}
	if doc["title"] != "User" || doc["description"] != "A registered user" {
		t.Errorf("title/description = %v/%v", doc["title"], doc["description"])
	}
	if doc["additionalProperties"] != false {
		t.Errorf("additionalProperties = %v, want false", doc["additionalProperties"])
	}

	wantRequired := []any{"id", "createdAt"}
	if !reflect.DeepEqual(doc["required"], wantRequired) {
		t.Errorf("required = %v, want %v", doc["required"], wantRequired)
	}

	props := doc["properties"].(map[string]any)
	id := props["id"].(map[string]any)
	if id["format"] != "uuid" || id["javaType"] != "java.util.UUID" {
		t.Errorf("id = %v", id)
	}
	manager := props["manager"].(map[string]any)
	if manager["$ref"] != "#/definitions/com.example.User" {
		t.Errorf("manager = %v", manager)
	}
	if v, ok := manager["default"]; !ok || v != nil {
		t.Errorf("manager default = %v (present %v), want null", v, ok)
	}

	defs := doc["definitions"].(map[string]any)
	if _, ok := defs["com.example.User"]; !ok || len(defs) != 1 {
		t.Errorf("definitions = %v", defs)
	}
}

func TestE2EConvertOutputDirStrict(t *testing.T) {
	dir := t.TempDir()
	runCLI(t, "convert", "--strict", "--draft", "draft-2020-12", "--lenient",
		"--output-dir", dir, "testdata/user.avsc", "testdata/order.avsc")

	for _, name := range []string{"user.schema.json", "order.schema.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("%s is not JSON: %v", name, err)
		}
		if doc["$schema"] != "https://json-schema.org/draft/2020-12/schema" {
			t.Errorf("%s: $schema = %v", name, doc["$schema"])
		}
		if _, ok := doc["$defs"]; !ok {
			t.Errorf("%s: missing $defs", name)
		}
		if _, ok := doc["additionalProperties"]; ok {
			t.Errorf("%s: strict output must not close objects", name)
		}
	}
}
