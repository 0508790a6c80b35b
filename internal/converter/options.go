package converter

import "fmt"

// Draft selects the JSON Schema dialect of the output.
type Draft int

const (
	Draft07 Draft = iota
	Draft202012
)

type draftInfo struct {
	name      string
	schemaURL string
	keyword   string
}

// drafts is the only place the per-draft strings are spelled out; the $ref
// prefix is always derived from the keyword.
var drafts = [...]draftInfo{
	Draft07:     {name: "draft-07", schemaURL: "http://json-schema.org/draft-07/schema#", keyword: "definitions"},
	Draft202012: {name: "draft-2020-12", schemaURL: "https://json-schema.org/draft/2020-12/schema", keyword: "$defs"},
}

func (d Draft) info() draftInfo {
	if d < 0 || int(d) >= len(drafts) {
		return drafts[Draft07]
	}
	return drafts[d]
}

func (d Draft) String() string { return d.info().name }

// SchemaURL is the value of the document's $schema keyword.
func (d Draft) SchemaURL() string { return d.info().schemaURL }

// DefinitionsKeyword is "definitions" for draft-07 and "$defs" for 2020-12.
func (d Draft) DefinitionsKeyword() string { return d.info().keyword }

// RefPrefix is the $ref path prefix pointing into the definitions table.
func (d Draft) RefPrefix() string { return "#/" + d.info().keyword + "/" }

// ParseDraft maps a draft name to a Draft. Unknown names yield Draft07.
func ParseDraft(name string) Draft {
	for i, info := range drafts {
		if info.name == name {
			return Draft(i)
		}
	}
	return Draft07
}

// Preset names.
const (
	PresetStrict        = "strict"
	PresetPojoOptimized = "pojo-optimized"
)

// Options controls the shape of the generated JSON Schema. It is a value:
// the With methods return modified copies.
type Options struct {
	// FlattenNullableUnions turns ["null", X] into plain X.
	FlattenNullableUnions bool
	// AdditionalPropertiesFalse closes record objects.
	AdditionalPropertiesFalse bool
	// OmitEmptyRequired drops "required" when no field is required.
	OmitEmptyRequired bool
	// JavaTypeHints emits "javaType" for logical types.
	JavaTypeHints bool
	Draft         Draft
}

// PojoOptimized shapes the output for code generation. It is the default.
func PojoOptimized() Options {
	return Options{
		FlattenNullableUnions:     true,
		AdditionalPropertiesFalse: true,
		OmitEmptyRequired:         true,
		JavaTypeHints:             true,
		Draft:                     Draft07,
	}
}

// Strict keeps the output as close to standard JSON Schema as possible.
func Strict() Options {
	return Options{Draft: Draft07}
}

// Preset returns the options of a named preset; "" selects pojo-optimized.
func Preset(name string) (Options, error) {
	switch name {
	case "", PresetPojoOptimized:
		return PojoOptimized(), nil
	case PresetStrict:
		return Strict(), nil
	default:
		return Options{}, fmt.Errorf("unknown preset %q (supported: %s, %s)", name, PresetStrict, PresetPojoOptimized)
	}
}

func (o Options) WithDraft(d Draft) Options {
	o.Draft = d
	return o
}

func (o Options) WithFlattenNullableUnions(v bool) Options {
	o.FlattenNullableUnions = v
	return o
}

func (o Options) WithAdditionalPropertiesFalse(v bool) Options {
	o.AdditionalPropertiesFalse = v
	return o
}

func (o Options) WithOmitEmptyRequired(v bool) Options {
	o.OmitEmptyRequired = v
	return o
}

func (o Options) WithJavaTypeHints(v bool) Options {
	o.JavaTypeHints = v
	return o
}
