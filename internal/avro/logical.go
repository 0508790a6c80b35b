package avro

import json "github.com/goccy/go-json"

// Logical type tags recognized on their base kind.
const (
	LogicalDecimal              = "decimal"
	LogicalUUID                 = "uuid"
	LogicalDate                 = "date"
	LogicalTimeMillis           = "time-millis"
	LogicalTimeMicros           = "time-micros"
	LogicalTimestampMillis      = "timestamp-millis"
	LogicalTimestampMicros      = "timestamp-micros"
	LogicalLocalTimestampMillis = "local-timestamp-millis"
	LogicalLocalTimestampMicros = "local-timestamp-micros"
	LogicalDuration             = "duration"
)

// recognizeLogical returns the structured annotation for a logicalType
// property that is valid on the schema's kind, nil otherwise. Duration is not
// recognized here; it stays a raw property.
func recognizeLogical(s *Schema) *Logical {
	tag, ok := s.StringProp("logicalType")
	if !ok {
		return nil
	}
	switch tag {
	case LogicalDecimal:
		if s.Kind != Bytes && s.Kind != Fixed {
			return nil
		}
		return decimalLogical(s)
	case LogicalUUID:
		if s.Kind == String {
			return &Logical{Type: tag}
		}
	case LogicalDate, LogicalTimeMillis:
		if s.Kind == Int {
			return &Logical{Type: tag}
		}
	case LogicalTimeMicros, LogicalTimestampMillis, LogicalTimestampMicros,
		LogicalLocalTimestampMillis, LogicalLocalTimestampMicros:
		if s.Kind == Long {
			return &Logical{Type: tag}
		}
	}
	return nil
}

func decimalLogical(s *Schema) *Logical {
	precision, ok := intProp(s, "precision")
	if !ok || precision <= 0 {
		return nil
	}
	scale, ok := intProp(s, "scale")
	if !ok {
		scale = 0
	}
	if scale < 0 || scale > precision {
		return nil
	}
	return &Logical{Type: LogicalDecimal, Precision: precision, Scale: scale}
}

func intProp(s *Schema, key string) (int, bool) {
	raw, ok := s.Prop(key)
	if !ok {
		return 0, false
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
