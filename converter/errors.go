package converter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies the class of a conversion failure for programmatic handling.
type ErrorCode int

const (
	ErrCodeUnsupportedFormat ErrorCode = iota + 100
	ErrCodeMalformedBlockLine
	ErrCodeEmptyInput
	ErrCodeInsufficientData
	ErrCodeIO
)

// String returns the wire name of the code, as used in API error payloads.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnsupportedFormat:
		return "UNSUPPORTED_FORMAT"
	case ErrCodeMalformedBlockLine:
		return "MALFORMED_BLOCK_LINE"
	case ErrCodeEmptyInput:
		return "EMPTY_INPUT"
	case ErrCodeInsufficientData:
		return "INSUFFICIENT_DATA"
	case ErrCodeIO:
		return "IO_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ConvertError provides structured error information for a failed conversion.
type ConvertError struct {
	Code    ErrorCode
	Op      string // Operation that failed (e.g., "TextToBinary")
	Line    int    // 1-based input line, 0 when not applicable
	Message string // Human-readable message
	Cause   error  // Underlying error
}

func (e *ConvertError) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d: ", e.Line)
	}
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *ConvertError) Unwrap() error {
	return e.Cause
}

func (e *ConvertError) Is(target error) bool {
	if t, ok := target.(*ConvertError); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrUnsupportedFormat  = &ConvertError{Code: ErrCodeUnsupportedFormat, Message: "unsupported file type"}
	ErrMalformedBlockLine = &ConvertError{Code: ErrCodeMalformedBlockLine, Message: "malformed block line"}
	ErrEmptyInput         = &ConvertError{Code: ErrCodeEmptyInput, Message: "no blocks found"}
	ErrInsufficientData   = &ConvertError{Code: ErrCodeInsufficientData, Message: "insufficient data"}
	ErrIO                 = &ConvertError{Code: ErrCodeIO, Message: "i/o error"}
)

// NewUnsupportedFormatError creates an error for inputs matching neither format.
func NewUnsupportedFormatError(op, name string) *ConvertError {
	msg := "unsupported file type"
	if name != "" {
		msg = fmt.Sprintf("unsupported file type: %s", name)
	}
	return &ConvertError{
		Code:    ErrCodeUnsupportedFormat,
		Op:      op,
		Message: msg,
	}
}

// NewMalformedBlockLineError creates an error for an undecodable block line.
func NewMalformedBlockLineError(op string, line int, message string, cause error) *ConvertError {
	return &ConvertError{
		Code:    ErrCodeMalformedBlockLine,
		Op:      op,
		Line:    line,
		Message: message,
		Cause:   cause,
	}
}

// NewEmptyInputError creates an error for NFC text without any block lines.
func NewEmptyInputError(op string) *ConvertError {
	return &ConvertError{
		Code:    ErrCodeEmptyInput,
		Op:      op,
		Message: "no block lines found",
	}
}

// NewInsufficientDataError creates an error for a dump too short to derive a UID from.
func NewInsufficientDataError(op string) *ConvertError {
	return &ConvertError{
		Code:    ErrCodeInsufficientData,
		Op:      op,
		Message: "dump is empty, cannot derive UID",
	}
}

// NewIOError wraps a read or write failure of a caller.
func NewIOError(op, path string, cause error) *ConvertError {
	return &ConvertError{
		Code:    ErrCodeIO,
		Op:      op,
		Message: path,
		Cause:   cause,
	}
}

// GetErrorCode extracts the ErrorCode from an error if it's a ConvertError.
// Returns 0 if the error is not a ConvertError.
func GetErrorCode(err error) ErrorCode {
	var convErr *ConvertError
	if errors.As(err, &convErr) {
		return convErr.Code
	}
	return 0
}

// IsUnsupportedFormatError checks if an error indicates an unrecognised input format.
func IsUnsupportedFormatError(err error) bool {
	return GetErrorCode(err) == ErrCodeUnsupportedFormat
}

// IsMalformedBlockLineError checks if an error indicates an undecodable block line.
func IsMalformedBlockLineError(err error) bool {
	return GetErrorCode(err) == ErrCodeMalformedBlockLine
}

// IsEmptyInputError checks if an error indicates NFC text without blocks.
func IsEmptyInputError(err error) bool {
	return GetErrorCode(err) == ErrCodeEmptyInput
}

// IsInsufficientDataError checks if an error indicates an empty dump.
func IsInsufficientDataError(err error) bool {
	return GetErrorCode(err) == ErrCodeInsufficientData
}
