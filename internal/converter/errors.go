package converter

import (
	"errors"
	"fmt"

	"github.com/takumiyoshikawa/avro-to-json/internal/avro"
)

// ErrSchemaParse matches errors caused by unparsable Avro schema text.
var ErrSchemaParse = avro.ErrSchemaParse

// ErrConversion matches every *ConversionError via errors.Is.
var ErrConversion = errors.New("converter: conversion error")

// ConversionError is an internal invariant violation while walking a
// schema tree. Well-formed input never produces one.
type ConversionError struct {
	Kind avro.Kind
	Msg  string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converter: %s (kind %s)", e.Msg, e.Kind)
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }
