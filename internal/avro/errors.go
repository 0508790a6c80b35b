package avro

import (
	"errors"
	"fmt"
)

// ErrSchemaParse matches every *ParseError via errors.Is.
var ErrSchemaParse = errors.New("avro: schema parse error")

// ParseError reports schema text that is not valid JSON or that misses a
// required attribute such as "type".
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	return "avro: " + e.message()
}

func (e *ParseError) message() string {
	if e.Err == nil {
		return e.Msg
	}
	if inner, ok := e.Err.(*ParseError); ok {
		return e.Msg + ": " + inner.message()
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrSchemaParse }

func parseErrorf(format string, a ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, a...)}
}
