package avro

import (
	"bytes"
	stdjson "encoding/json"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// reserved attributes never surface as custom properties.
var reserved = map[string]bool{
	"type":      true,
	"name":      true,
	"namespace": true,
	"doc":       true,
	"fields":    true,
	"symbols":   true,
	"items":     true,
	"values":    true,
	"size":      true,
	"aliases":   true,
}

type parser struct {
	names map[string]*Schema
}

// Parse parses Avro schema text into a schema tree.
func Parse(text string) (*Schema, error) {
	return ParseBytes([]byte(text))
}

// ParseBytes is Parse for a byte slice.
func ParseBytes(data []byte) (*Schema, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ParseError{Msg: "malformed schema JSON", Err: err}
	}
	p := &parser{names: make(map[string]*Schema)}
	return p.parse(data, "")
}

func (p *parser) parse(raw []byte, namespace string) (*Schema, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, parseErrorf("empty schema")
	}
	switch raw[0] {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, &ParseError{Msg: "malformed type name", Err: err}
		}
		return p.resolve(name, namespace)
	case '[':
		var members []stdjson.RawMessage
		if err := json.Unmarshal(raw, &members); err != nil {
			return nil, &ParseError{Msg: "malformed union", Err: err}
		}
		union := &Schema{Kind: Union, Types: make([]*Schema, 0, len(members))}
		for _, m := range members {
			t, err := p.parse(m, namespace)
			if err != nil {
				return nil, err
			}
			union.Types = append(union.Types, t)
		}
		return union, nil
	case '{':
		return p.parseObject(raw, namespace)
	default:
		return nil, parseErrorf("schema must be a type name, a union or an object, got %s", truncate(raw))
	}
}

func (p *parser) parseObject(raw []byte, namespace string) (*Schema, error) {
	obj := orderedmap.New[string, stdjson.RawMessage]()
	if err := obj.UnmarshalJSON(raw); err != nil {
		return nil, &ParseError{Msg: "malformed schema object", Err: err}
	}
	typeRaw, ok := obj.Get("type")
	if !ok {
		return nil, parseErrorf("no type: %s", truncate(raw))
	}
	typeRaw = bytes.TrimSpace(typeRaw)
	if len(typeRaw) > 0 && (typeRaw[0] == '{' || typeRaw[0] == '[') {
		return p.parse(typeRaw, namespace)
	}
	var typ string
	if err := json.Unmarshal(typeRaw, &typ); err != nil {
		return nil, parseErrorf("type must be a string: %s", truncate(typeRaw))
	}

	if kind, ok := primitiveKinds[typ]; ok {
		s := &Schema{Kind: kind, Props: customProps(obj, false)}
		s.Logical = recognizeLogical(s)
		return s, nil
	}

	switch typ {
	case "record", "error":
		return p.parseRecord(obj, namespace)
	case "enum":
		return p.parseEnum(obj, namespace)
	case "fixed":
		return p.parseFixed(obj, namespace)
	case "array":
		items, ok := obj.Get("items")
		if !ok {
			return nil, parseErrorf("array has no items")
		}
		s := &Schema{Kind: Array, Props: customProps(obj, false)}
		child, err := p.parse(items, namespace)
		if err != nil {
			return nil, err
		}
		s.Items = child
		return s, nil
	case "map":
		values, ok := obj.Get("values")
		if !ok {
			return nil, parseErrorf("map has no values")
		}
		s := &Schema{Kind: Map, Props: customProps(obj, false)}
		child, err := p.parse(values, namespace)
		if err != nil {
			return nil, err
		}
		s.Values = child
		return s, nil
	default:
		return p.resolve(typ, namespace)
	}
}

func (p *parser) parseRecord(obj *Props, namespace string) (*Schema, error) {
	s, err := p.define(obj, Record, namespace)
	if err != nil {
		return nil, err
	}
	fieldsRaw, ok := obj.Get("fields")
	if !ok {
		return nil, parseErrorf("record %s has no fields", s.FullName())
	}
	var fields []stdjson.RawMessage
	if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
		return nil, &ParseError{Msg: "record " + s.FullName() + ": fields must be an array", Err: err}
	}
	s.Fields = make([]*Field, 0, len(fields))
	for i, fr := range fields {
		f, err := p.parseField(fr, s.Namespace)
		if err != nil {
			return nil, &ParseError{Msg: s.FullName() + ".fields[" + strconv.Itoa(i) + "]", Err: err}
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

func (p *parser) parseField(raw []byte, namespace string) (*Field, error) {
	obj := orderedmap.New[string, stdjson.RawMessage]()
	if err := obj.UnmarshalJSON(bytes.TrimSpace(raw)); err != nil {
		return nil, &ParseError{Msg: "malformed field", Err: err}
	}
	name, ok, err := stringAttr(obj, "name")
	if err != nil {
		return nil, err
	}
	if !ok || name == "" {
		return nil, parseErrorf("field has no name")
	}
	typeRaw, ok := obj.Get("type")
	if !ok {
		return nil, parseErrorf("no type for field %q", name)
	}
	t, err := p.parse(typeRaw, namespace)
	if err != nil {
		return nil, err
	}
	doc, _, err := stringAttr(obj, "doc")
	if err != nil {
		return nil, err
	}
	f := &Field{Name: name, Type: t, Doc: doc}
	if def, ok := obj.Get("default"); ok {
		def = bytes.TrimSpace(def)
		if len(def) == 0 {
			def = stdjson.RawMessage("null")
		}
		f.Default = def
	}
	return f, nil
}

func (p *parser) parseEnum(obj *Props, namespace string) (*Schema, error) {
	s, err := p.define(obj, Enum, namespace)
	if err != nil {
		return nil, err
	}
	symbolsRaw, ok := obj.Get("symbols")
	if !ok {
		return nil, parseErrorf("enum %s has no symbols", s.FullName())
	}
	if err := json.Unmarshal(symbolsRaw, &s.Symbols); err != nil {
		return nil, &ParseError{Msg: "enum " + s.FullName() + ": symbols must be an array of strings", Err: err}
	}
	return s, nil
}

func (p *parser) parseFixed(obj *Props, namespace string) (*Schema, error) {
	s, err := p.define(obj, Fixed, namespace)
	if err != nil {
		return nil, err
	}
	sizeRaw, ok := obj.Get("size")
	if !ok {
		return nil, parseErrorf("fixed %s has no size", s.FullName())
	}
	if err := json.Unmarshal(sizeRaw, &s.Size); err != nil {
		return nil, &ParseError{Msg: "fixed " + s.FullName() + ": size must be an integer", Err: err}
	}
	s.Logical = recognizeLogical(s)
	return s, nil
}

// define creates a named schema and registers it before its body is parsed,
// so the body may refer to it.
func (p *parser) define(obj *Props, kind Kind, enclosing string) (*Schema, error) {
	name, ok, err := stringAttr(obj, "name")
	if err != nil {
		return nil, err
	}
	if !ok || name == "" {
		return nil, parseErrorf("%s has no name", kind)
	}
	namespace := enclosing
	if ns, ok, err := stringAttr(obj, "namespace"); err != nil {
		return nil, err
	} else if ok {
		namespace = ns
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		namespace, name = name[:i], name[i+1:]
	}
	doc, _, err := stringAttr(obj, "doc")
	if err != nil {
		return nil, err
	}
	s := &Schema{
		Kind:      kind,
		Name:      name,
		Namespace: namespace,
		Doc:       doc,
		Props:     customProps(obj, kind == Enum),
	}
	full := s.FullName()
	if _, exists := p.names[full]; exists {
		return nil, parseErrorf("can't redefine: %s", full)
	}
	p.names[full] = s
	return s, nil
}

// resolve turns a type name into a primitive schema or a previously defined
// named schema. Undotted names are looked up in the enclosing namespace
// first, then in the null namespace.
func (p *parser) resolve(name, namespace string) (*Schema, error) {
	if kind, ok := primitiveKinds[name]; ok {
		return &Schema{Kind: kind}, nil
	}
	if !strings.Contains(name, ".") && namespace != "" {
		if s, ok := p.names[namespace+"."+name]; ok {
			return s, nil
		}
	}
	if s, ok := p.names[name]; ok {
		return s, nil
	}
	return nil, parseErrorf("undefined name: %q", name)
}

func customProps(obj *Props, isEnum bool) *Props {
	props := orderedmap.New[string, stdjson.RawMessage]()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if reserved[pair.Key] || (isEnum && pair.Key == "default") {
			continue
		}
		props.Set(pair.Key, pair.Value)
	}
	return props
}

func stringAttr(obj *Props, key string) (string, bool, error) {
	raw, ok := obj.Get(key)
	if !ok {
		return "", false, nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", true, parseErrorf("%s must be a string: %s", key, truncate(raw))
	}
	return v, true, nil
}

func truncate(raw []byte) string {
	const limit = 80
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
