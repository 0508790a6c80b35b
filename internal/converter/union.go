package converter

import "github.com/takumiyoshikawa/avro-to-json/internal/avro"

// resolveUnion writes the JSON Schema form of an Avro union into node.
//
// A union of null and exactly one other member is an optional value: it is
// flattened to the member, or rendered as a ["null", X] type array (scalar
// members) or a two-branch oneOf (complex members). Every other union is a
// oneOf of all members in declaration order.
func (c *Converter) resolveUnion(node *Node, s *avro.Schema, cc *conversionContext) error {
	nonNull := make([]*avro.Schema, 0, len(s.Types))
	for _, t := range s.Types {
		if t.Kind != avro.Null {
			nonNull = append(nonNull, t)
		}
	}
	hasNull := len(nonNull) != len(s.Types)

	if hasNull && len(nonNull) == 1 {
		inner := nonNull[0]
		if c.opts.FlattenNullableUnions {
			converted, err := c.convert(inner, cc)
			if err != nil {
				return err
			}
			node.SetAll(converted)
			return nil
		}
		if name, ok := primitiveTypeName(inner.Kind); ok {
			node.Set("type", []string{"null", name})
			return nil
		}
		converted, err := c.convert(inner, cc)
		if err != nil {
			return err
		}
		node.Set("oneOf", []any{NewNode().Set("type", "null"), converted})
		return nil
	}

	oneOf := make([]any, 0, len(s.Types))
	for _, t := range s.Types {
		converted, err := c.convert(t, cc)
		if err != nil {
			return err
		}
		oneOf = append(oneOf, converted)
	}
	node.Set("oneOf", oneOf)
	return nil
}

// primitiveTypeName maps the kinds that have a direct JSON Schema type name.
func primitiveTypeName(k avro.Kind) (string, bool) {
	switch k {
	case avro.String, avro.Bytes:
		return "string", true
	case avro.Int, avro.Long:
		return "integer", true
	case avro.Float, avro.Double:
		return "number", true
	case avro.Boolean:
		return "boolean", true
	case avro.Null:
		return "null", true
	default:
		return "", false
	}
}
