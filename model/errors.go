package model

import (
	"context"
	"errors"
)

var (
	// ErrDescriptionParse reports an unreadable or malformed model file.
	ErrDescriptionParse = errors.New("model description parse error")
	// ErrUnsupportedArchitecture reports a well-formed description whose
	// shape has no registered architecture.
	ErrUnsupportedArchitecture = errors.New("unsupported model architecture")
	// ErrValidationFailed reports a self-test error above the threshold.
	ErrValidationFailed = errors.New("model validation failed")
)

// ErrorKind classifies err for log fields.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDescriptionParse):
		return "description_parse"
	case errors.Is(err, ErrUnsupportedArchitecture):
		return "unsupported_architecture"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}
