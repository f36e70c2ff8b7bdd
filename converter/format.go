package converter

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format is one of the two supported file representations.
type Format string

const (
	FormatNFC  Format = "nfc"
	FormatDump Format = "dump"
)

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Opposite returns the format a file of this format converts into.
func (f Format) Opposite() Format {
	if f == FormatNFC {
		return FormatDump
	}
	return FormatNFC
}

var nfcSignature = []byte("Filetype:")

// DetectFormat picks the input format from the file extension
// (case-insensitive). A name without extension is sniffed: text starting
// with "Filetype:" is NFC. Anything else is ErrUnsupportedFormat.
func DetectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case FormatNFC.Extension():
		return FormatNFC, nil
	case FormatDump.Extension():
		return FormatDump, nil
	case "":
		if bytes.HasPrefix(bytes.TrimLeft(data, "\ufeff \t\r\n"), nfcSignature) {
			return FormatNFC, nil
		}
	}
	if name != "" {
		name = filepath.Base(name)
	}
	return "", NewUnsupportedFormatError("DetectFormat", name)
}

// OutputName keeps the base name of input and swaps its extension for the
// extension of format ("card.nfc" becomes "card.dump").
func OutputName(input string, format Format) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "output"
	}
	return base + format.Extension()
}

// StatusMessage renders the one-line status shown to users after a conversion.
func StatusMessage(res *Result, err error) string {
	switch {
	case IsUnsupportedFormatError(err):
		return "Error: Unsupported file type"
	case err != nil:
		return "Conversion Error: " + err.Error()
	case res == nil:
		return ""
	default:
		return "Successfully converted " + res.From.Extension() + " to " + res.To.Extension()
	}
}
