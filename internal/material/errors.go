package material

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedDescriptor = errors.New("malformed material descriptor")
	ErrMissingShaders      = errors.New("material descriptor names no vertex and no fragment shader")
	ErrMissingVertex       = errors.New("material descriptor is missing the \"vertex\" shader address")
	ErrMissingFragment     = errors.New("material descriptor is missing the \"fragment\" shader address")
	ErrUnknownEnumValue    = errors.New("unknown enum value")
	ErrWrongType           = errors.New("wrong value type")
	ErrNoSelection         = errors.New("mutation recorded before any entity was selected")
)

// ParseError reports a descriptor field whose value could not be used.
type ParseError struct {
	Field string
	Value string
	Err   error
	// Valid lists the accepted names when Err is ErrUnknownEnumValue.
	Valid []string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("material descriptor: field %q: %v %q", e.Field, e.Err, e.Value)
	if len(e.Valid) > 0 {
		msg += " (expected one of " + strings.Join(e.Valid, ", ") + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }
