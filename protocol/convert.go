package protocol

import (
	"errors"

	"github.com/nedpals/nfc-dump-converter/converter"
)

// NewConvertResult builds the response payload for a finished conversion.
func NewConvertResult(res *converter.Result) ConvertResultPayload {
	payload := ConvertResultPayload{
		Filename: res.Name,
		From:     string(res.From),
		To:       string(res.To),
		Blocks:   res.Blocks,
		UID:      converter.FormatBytes(res.UID),
	}
	if res.To == converter.FormatNFC {
		payload.Text = string(res.Data)
	} else {
		payload.Data = res.Data
	}
	return payload
}

// ErrorCodeOf maps an error to its wire code.
func ErrorCodeOf(err error) string {
	if code := converter.GetErrorCode(err); code != 0 {
		return code.String()
	}
	return ErrCodeInternal
}

// ErrorLineOf returns the input line of a malformed block error, or 0.
func ErrorLineOf(err error) int {
	var convErr *converter.ConvertError
	if errors.As(err, &convErr) {
		return convErr.Line
	}
	return 0
}
