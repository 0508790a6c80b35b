// Package converter turns Avro schemas into JSON Schema documents.
//
// A conversion walks the Avro tree depth first. Named records are tracked
// while they are being expanded: a record met again (recursively or from a
// sibling field) becomes a $ref into the definitions table, which holds one
// entry per record keyed by its fully-qualified name.
package converter

import (
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/takumiyoshikawa/avro-to-json/internal/avro"
)

// internalProps are Avro plumbing and never copied to the output.
var internalProps = map[string]bool{
	"logicalType":        true,
	"precision":          true,
	"scale":              true,
	"connect.parameters": true,
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.log = l
		}
	}
}

// Converter converts Avro schemas with a fixed set of options. It holds no
// per-conversion state and is safe for concurrent use.
type Converter struct {
	opts Options
	log  *zap.Logger
}

// New returns a Converter for opts.
func New(opts Options, options ...Option) *Converter {
	c := &Converter{opts: opts, log: zap.NewNop()}
	for _, o := range options {
		o(c)
	}
	return c
}

// Options returns the converter's options.
func (c *Converter) Options() Options {
	return c.opts
}

// Convert converts Avro schema text with opts and returns pretty-printed
// JSON Schema text.
func Convert(avroSchema string, opts Options) (string, error) {
	return New(opts).Convert(avroSchema)
}

// Convert parses Avro schema text and returns the pretty-printed JSON Schema.
func (c *Converter) Convert(avroSchema string) (string, error) {
	schema, err := avro.Parse(avroSchema)
	if err != nil {
		return "", err
	}
	doc, err := c.ConvertSchema(schema)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ConvertSchema converts a parsed schema into a JSON Schema document.
func (c *Converter) ConvertSchema(schema *avro.Schema) (*Node, error) {
	cc := newConversionContext()
	root, err := c.convert(schema, cc)
	if err != nil {
		return nil, err
	}

	doc := NewNode()
	doc.Set("$schema", c.opts.Draft.SchemaURL())
	if len(cc.definitions) > 0 {
		doc.Set(c.opts.Draft.DefinitionsKeyword(), cc.definitionsNode())
	}
	doc.SetAll(root)

	c.log.Debug("converted schema",
		zap.String("root", rootName(schema)),
		zap.Stringer("draft", c.opts.Draft),
		zap.Int("definitions", len(cc.definitions)),
	)
	return doc, nil
}

func (c *Converter) convert(s *avro.Schema, cc *conversionContext) (*Node, error) {
	if s.Kind == avro.Record {
		name := s.FullName()
		if cc.seen(name) {
			return NewNode().Set("$ref", c.opts.Draft.RefPrefix()+name), nil
		}
		cc.markSeen(name)
	}

	node := NewNode()
	c.applyLogicalType(node, s)
	if err := c.dispatch(node, s, cc); err != nil {
		return nil, err
	}
	if s.Doc != "" {
		node.Set("description", s.Doc)
	}
	copyCustomProps(node, s)

	if s.Kind == avro.Record {
		cc.define(s.FullName(), node.DeepCopy())
	}
	return node, nil
}

func (c *Converter) applyLogicalType(node *Node, s *avro.Schema) {
	tag := logicalTag(s)
	if tag == "" {
		return
	}
	m, ok := MapLogicalType(tag, c.opts.JavaTypeHints)
	if !ok {
		c.log.Debug("unrecognized logical type, using base type",
			zap.String("logicalType", tag),
			zap.Stringer("kind", s.Kind),
		)
		return
	}
	node.Set("type", m.Type)
	if m.Format != "" {
		node.Set("format", m.Format)
	}
	if m.JavaType != "" {
		node.Set("javaType", m.JavaType)
	}
}

// dispatch fills in the structure of node for s.Kind. Keys already written by
// the logical-type pass are left alone.
func (c *Converter) dispatch(node *Node, s *avro.Schema, cc *conversionContext) error {
	switch s.Kind {
	case avro.Record:
		return c.convertRecord(node, s, cc)
	case avro.Array:
		items, err := c.convert(s.Items, cc)
		if err != nil {
			return err
		}
		node.SetIfAbsent("type", "array")
		node.Set("items", items)
	case avro.Map:
		values, err := c.convert(s.Values, cc)
		if err != nil {
			return err
		}
		node.SetIfAbsent("type", "object")
		node.Set("additionalProperties", values)
	case avro.Enum:
		node.SetIfAbsent("type", "string")
		node.Set("enum", append([]string{}, s.Symbols...))
	case avro.Union:
		return c.resolveUnion(node, s, cc)
	case avro.String:
		node.SetIfAbsent("type", "string")
	case avro.Bytes, avro.Fixed:
		if !node.Has("type") {
			node.Set("type", "string")
			node.Set("contentEncoding", "base64")
		}
	case avro.Int, avro.Long:
		node.SetIfAbsent("type", "integer")
	case avro.Float, avro.Double:
		node.SetIfAbsent("type", "number")
	case avro.Boolean:
		node.SetIfAbsent("type", "boolean")
	case avro.Null:
		node.SetIfAbsent("type", "null")
	default:
		return &ConversionError{Kind: s.Kind, Msg: "unsupported schema kind"}
	}
	return nil
}

func (c *Converter) convertRecord(node *Node, s *avro.Schema, cc *conversionContext) error {
	node.SetIfAbsent("type", "object")
	node.SetIfAbsent("title", s.Name)

	properties := NewNode()
	node.Set("properties", properties)
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		prop, err := c.convert(f.Type, cc)
		if err != nil {
			return err
		}
		if f.Doc != "" && !prop.Has("description") {
			prop.Set("description", f.Doc)
		}
		if f.HasDefault() {
			prop.Set("default", f.Default)
		}
		properties.Set(f.Name, prop)
		if !f.Type.Nullable() {
			required = append(required, f.Name)
		}
	}

	if len(required) > 0 || !c.opts.OmitEmptyRequired {
		node.Set("required", required)
	}
	if c.opts.AdditionalPropertiesFalse {
		node.Set("additionalProperties", false)
	}
	return nil
}

func copyCustomProps(node *Node, s *avro.Schema) {
	if s.Props == nil {
		return
	}
	for pair := s.Props.Oldest(); pair != nil; pair = pair.Next() {
		if internalProps[pair.Key] {
			continue
		}
		node.Set(pair.Key, pair.Value)
	}
}

func rootName(s *avro.Schema) string {
	if s.Kind.Named() {
		return s.FullName()
	}
	return s.Kind.String()
}
