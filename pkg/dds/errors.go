package dds

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by DecodeError, usable with errors.Is.
var (
	ErrBadMagic           = errors.New("bad magic")
	ErrShortHeader        = errors.New("short header")
	ErrUnknownPixelFormat = errors.New("unknown pixel format")
	ErrTruncated          = errors.New("truncated payload")
	ErrInvalidDimensions  = errors.New("invalid dimensions")
	ErrInvalidMipCount    = errors.New("invalid mip count")
)

// Error codes.
const (
	CodeBadMagic           = "BAD_MAGIC"
	CodeShortHeader        = "SHORT_HEADER"
	CodeUnknownPixelFormat = "UNKNOWN_PIXEL_FORMAT"
	CodeTruncated          = "TRUNCATED"
	CodeInvalidDimensions  = "INVALID_DIMENSIONS"
	CodeInvalidMipCount    = "INVALID_MIP_COUNT"
)

// DecodeError reports a malformed or unsupported container.
type DecodeError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dds: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("dds: %s: %s", e.Code, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func newDecodeError(code, message string, cause error) *DecodeError {
	return &DecodeError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
