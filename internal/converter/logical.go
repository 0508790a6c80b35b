package converter

import "github.com/takumiyoshikawa/avro-to-json/internal/avro"

// LogicalMapping is the JSON Schema rendition of an Avro logical type.
type LogicalMapping struct {
	Type     string
	Format   string
	JavaType string
}

var logicalTypes = map[string]LogicalMapping{
	avro.LogicalDecimal:         {Type: "number", JavaType: "java.math.BigDecimal"},
	avro.LogicalTimestampMillis: {Type: "integer", Format: "utc-millisec", JavaType: "java.time.Instant"},
	avro.LogicalTimestampMicros: {Type: "integer", Format: "utc-millisec", JavaType: "java.time.Instant"},
	avro.LogicalDate:            {Type: "string", Format: "date", JavaType: "java.time.LocalDate"},
	avro.LogicalTimeMillis:      {Type: "string", Format: "time", JavaType: "java.time.LocalTime"},
	avro.LogicalTimeMicros:      {Type: "string", Format: "time", JavaType: "java.time.LocalTime"},
	avro.LogicalUUID:            {Type: "string", Format: "uuid", JavaType: "java.util.UUID"},
	avro.LogicalDuration:        {Type: "string", Format: "duration", JavaType: "java.time.Duration"},
}

// MapLogicalType looks up a logical-type tag. JavaType is left empty unless
// javaHints is set. Unknown tags report false.
func MapLogicalType(tag string, javaHints bool) (LogicalMapping, bool) {
	m, ok := logicalTypes[tag]
	if !ok {
		return LogicalMapping{}, false
	}
	if !javaHints {
		m.JavaType = ""
	}
	return m, true
}

// logicalTag prefers the parser's structured annotation and falls back to a
// raw "logicalType" property the parser did not recognize on this kind.
func logicalTag(s *avro.Schema) string {
	if s.Logical != nil {
		return s.Logical.Type
	}
	tag, _ := s.StringProp("logicalType")
	return tag
}
