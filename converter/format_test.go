package converter

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     []byte
		expected Format
		wantErr  bool
	}{
		{"nfc extension", "tag.nfc", nil, FormatNFC, false},
		{"dump extension", "tag.dump", nil, FormatDump, false},
		{"uppercase extension", "TAG.NFC", nil, FormatNFC, false},
		{"sniffed nfc", "upload", []byte("Filetype: Flipper NFC device\n"), FormatNFC, false},
		{"sniffed nfc with bom", "upload", []byte("\ufeffFiletype: Flipper NFC device\n"), FormatNFC, false},
		{"unknown extension", "tag.bin", []byte("Filetype: x"), "", true},
		{"no extension binary", "upload", []byte{0x00, 0x01}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file, tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input    string
		format   Format
		expected string
	}{
		{"card.nfc", FormatDump, "card.dump"},
		{"/home/user/dumps/card.dump", FormatNFC, "card.nfc"},
		{"my.card.nfc", FormatDump, "my.card.dump"},
		{"noext", FormatNFC, "noext.nfc"},
		{"", FormatNFC, "output.nfc"},
	}

	for _, tt := range tests {
		if got := OutputName(tt.input, tt.format); got != tt.expected {
			t.Errorf("OutputName(%q, %q) = %q, want %q", tt.input, tt.format, got, tt.expected)
		}
	}
}

func TestFormat_Opposite(t *testing.T) {
	if FormatNFC.Opposite() != FormatDump {
		t.Error("nfc should convert to dump")
	}
	if FormatDump.Opposite() != FormatNFC {
		t.Error("dump should convert to nfc")
	}
}

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		name     string
		res      *Result
		err      error
		expected string
	}{
		{"nfc to dump", &Result{From: FormatNFC, To: FormatDump}, nil, "Successfully converted .nfc to .dump"},
		{"dump to nfc", &Result{From: FormatDump, To: FormatNFC}, nil, "Successfully converted .dump to .nfc"},
		{"unsupported", nil, NewUnsupportedFormatError("DetectFormat", "x.txt"), "Error: Unsupported file type"},
		{"other error", nil, NewEmptyInputError("TextToBinary"), "Conversion Error: TextToBinary: no block lines found"},
		{"nothing", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusMessage(tt.res, tt.err); got != tt.expected {
				t.Errorf("StatusMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}
