// Package avro holds the in-memory Avro schema tree and the parser that
// builds it from Avro's JSON schema notation.
package avro

import (
	stdjson "encoding/json"

	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the closed set of Avro schema kinds.
type Kind int

const (
	Null Kind = iota
	Boolean
	Int
	Long
	Float
	Double
	Bytes
	String
	Record
	Enum
	Array
	Map
	Union
	Fixed
)

var kindNames = map[Kind]string{
	Null:    "null",
	Boolean: "boolean",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Bytes:   "bytes",
	String:  "string",
	Record:  "record",
	Enum:    "enum",
	Array:   "array",
	Map:     "map",
	Union:   "union",
	Fixed:   "fixed",
}

var primitiveKinds = map[string]Kind{
	"null":    Null,
	"boolean": Boolean,
	"int":     Int,
	"long":    Long,
	"float":   Float,
	"double":  Double,
	"bytes":   Bytes,
	"string":  String,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Named reports whether schemas of this kind carry a fully-qualified name.
func (k Kind) Named() bool {
	return k == Record || k == Enum || k == Fixed
}

// Logical is a logical-type annotation recognized on its base kind.
type Logical struct {
	Type      string
	Precision int
	Scale     int
}

// Props is the ordered set of custom properties of a schema, kept as raw JSON.
type Props = orderedmap.OrderedMap[string, stdjson.RawMessage]

// Field is one field of a record.
type Field struct {
	Name string
	Type *Schema
	Doc  string

	// Default is the raw JSON default value, nil when the field declares none.
	Default stdjson.RawMessage
}

// HasDefault reports whether the field declares a default value, null included.
func (f *Field) HasDefault() bool {
	return f.Default != nil
}

// Schema is one node of an Avro schema tree. References to a named type
// point at the same *Schema, so a recursive type yields a cyclic graph.
type Schema struct {
	Kind Kind

	// Name and Namespace are set for records, enums and fixed types.
	Name      string
	Namespace string
	Doc       string

	Fields  []*Field  // record
	Symbols []string  // enum
	Items   *Schema   // array
	Values  *Schema   // map
	Types   []*Schema // union
	Size    int       // fixed

	Logical *Logical
	Props   *Props
}

// FullName returns namespace.name, or the bare name in the null namespace.
func (s *Schema) FullName() string {
	if s.Namespace == "" {
		return s.Name
	}
	return s.Namespace + "." + s.Name
}

// Prop returns the raw JSON value of a custom property.
func (s *Schema) Prop(key string) (stdjson.RawMessage, bool) {
	if s.Props == nil {
		return nil, false
	}
	return s.Props.Get(key)
}

// StringProp returns a custom property that holds a JSON string.
func (s *Schema) StringProp(key string) (string, bool) {
	raw, ok := s.Prop(key)
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

// Nullable reports whether the schema admits null: it is the null type or a
// union with a null member.
func (s *Schema) Nullable() bool {
	if s.Kind == Union {
		for _, t := range s.Types {
			if t.Kind == Null {
				return true
			}
		}
		return false
	}
	return s.Kind == Null
}
