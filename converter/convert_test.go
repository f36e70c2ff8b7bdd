package converter

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func sampleDump(blocks int) []byte {
	data := make([]byte, blocks*BlockSize)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func blockLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "Block ") {
			lines = append(lines, line)
		}
	}
	return lines
}

func headerValue(t *testing.T, text, key string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, key+": ") {
			return strings.TrimPrefix(line, key+": ")
		}
	}
	t.Fatalf("header %q not found", key)
	return ""
}

func TestBinaryToText_TwoBlocks(t *testing.T) {
	data := append(bytes.Repeat([]byte{0x00}, 16), bytes.Repeat([]byte{0xFF}, 16)...)

	text, err := BinaryToText(data)
	if err != nil {
		t.Fatalf("BinaryToText() error = %v", err)
	}

	lines := blockLines(text)
	if len(lines) != 2 {
		t.Fatalf("expected 2 block lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "Block 0: 0000 0000 0000 0000 0000 0000 0000 0000" {
		t.Errorf("block 0 = %q", lines[0])
	}
	if lines[1] != "Block 1: FFFF FFFF FFFF FFFF FFFF FFFF FFFF FFFF" {
		t.Errorf("block 1 = %q", lines[1])
	}
	if uid := headerValue(t, text, "UID"); uid != "00 00 00 00 00 00" {
		t.Errorf("UID = %q, want %q", uid, "00 00 00 00 00 00")
	}
}

func TestBinaryToText_Header(t *testing.T) {
	data := []byte{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6, 0x07, 0, 0, 0, 0, 0, 0, 0, 0}

	text, err := BinaryToText(data)
	if err != nil {
		t.Fatalf("BinaryToText() error = %v", err)
	}

	expected := strings.Join([]string{
		"Filetype: Flipper NFC device",
		"Version: 4",
		"# Device type can be ISO14443-3A, ISO14443-3B, ISO14443-4A, ISO14443-4B, ISO15693-3, FeliCa, NTAG/Ultralight, Mifare Classic, Mifare DESFire, SLIX, ST25TB, EMV",
		"Device type: Mifare Classic",
		"# UID is common for all formats",
		"UID: 04 A1 B2 C3 D4 E5",
		"# ISO14443-3A specific data",
		"ATQA: 00 04",
		"SAK: 08",
		"# Mifare Classic specific data",
		"Mifare Classic type: 1K",
		"Data format version: 2",
		"# Mifare Classic blocks, '??' means unknown data",
		"Block 0: 04A1 B2C3 D4E5 F607 0000 0000 0000 0000",
	}, "\n")

	if text != expected {
		t.Errorf("BinaryToText() =\n%s\nwant\n%s", text, expected)
	}
}

func TestBinaryToText_ShortFinalBlock(t *testing.T) {
	data := append(sampleDump(1), 0xAB, 0xCD, 0xEF)

	text, err := BinaryToText(data)
	if err != nil {
		t.Fatalf("BinaryToText() error = %v", err)
	}

	lines := blockLines(text)
	if len(lines) != 2 {
		t.Fatalf("expected 2 block lines, got %d", len(lines))
	}
	if lines[1] != "Block 1: ABCD EF" {
		t.Errorf("short block = %q, want %q", lines[1], "Block 1: ABCD EF")
	}
}

func TestBinaryToText_ShortFirstBlockUID(t *testing.T) {
	text, err := BinaryToText([]byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("BinaryToText() error = %v", err)
	}
	if uid := headerValue(t, text, "UID"); uid != "01 02 03" {
		t.Errorf("UID = %q, want %q", uid, "01 02 03")
	}
}

func TestBinaryToText_Empty(t *testing.T) {
	_, err := BinaryToText(nil)
	if err == nil {
		t.Fatal("expected error for empty buffer")
	}
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTextToBinary_RoundTrip(t *testing.T) {
	for _, blocks := range []int{1, 4, 64, 256} {
		data := sampleDump(blocks)

		text, err := BinaryToText(data)
		if err != nil {
			t.Fatalf("BinaryToText(%d blocks) error = %v", blocks, err)
		}
		got, err := TextToBinary(text)
		if err != nil {
			t.Fatalf("TextToBinary(%d blocks) error = %v", blocks, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("round trip of %d blocks changed the payload", blocks)
		}
	}
}

func TestTextToBinary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{
			name:     "header lines ignored",
			input:    "Filetype: Flipper NFC device\nUID: 01 02\n# comment\nBlock 0: 0102 0304",
			expected: []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:     "lowercase and mixed spacing",
			input:    "Block 0: ab cd\tEF 01",
			expected: []byte{0xAB, 0xCD, 0xEF, 0x01},
		},
		{
			name:     "crlf line endings",
			input:    "Version: 4\r\nBlock 0: 0A0B\r\nBlock 1: 0C0D\r\n",
			expected: []byte{0x0A, 0x0B, 0x0C, 0x0D},
		},
		{
			name:     "file order wins over printed index",
			input:    "Block 1: 1111\nBlock 0: 0000",
			expected: []byte{0x11, 0x11, 0x00, 0x00},
		},
		{
			name:     "prefix is case sensitive",
			input:    "block 0: FFFF\nBlock 0: 0001",
			expected: []byte{0x00, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TextToBinary(tt.input)
			if err != nil {
				t.Fatalf("TextToBinary() error = %v", err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("TextToBinary() = %X, want %X", got, tt.expected)
			}
		})
	}
}

func TestTextToBinary_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{"no block lines", "Filetype: Flipper NFC device\nVersion: 4\n", ErrEmptyInput},
		{"empty input", "", ErrEmptyInput},
		{"invalid hex", "Block 0: ZZZZ ZZZZ ZZZZ ZZZZ ZZZZ ZZZZ ZZZZ ZZZZ", ErrMalformedBlockLine},
		{"odd length", "Block 0: ABC", ErrMalformedBlockLine},
		{"unknown bytes", "Block 0: ?? ?? ?? ??", ErrMalformedBlockLine},
		{"missing label", "Block zero: 0000", ErrMalformedBlockLine},
		{"empty payload", "Block 0: ", ErrMalformedBlockLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TextToBinary(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("error = %v, want %v", err, tt.expected)
			}
		})
	}
}

func TestTextToBinary_MalformedLineNumber(t *testing.T) {
	_, err := TextToBinary("Version: 4\nBlock 0: 0000\nBlock 1: XYZW")

	var convErr *ConvertError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected *ConvertError, got %T", err)
	}
	if convErr.Line != 3 {
		t.Errorf("Line = %d, want 3", convErr.Line)
	}
}

func TestConverter_StrictBlockIndex(t *testing.T) {
	strict := New(Options{StrictBlockIndex: true})

	if _, err := strict.ToDump("Block 0: 0000\nBlock 1: 1111"); err != nil {
		t.Errorf("ordered blocks rejected: %v", err)
	}

	_, err := strict.ToDump("Block 1: 1111\nBlock 0: 0000")
	if !IsMalformedBlockLineError(err) {
		t.Errorf("expected malformed block line error, got %v", err)
	}

	_, err = strict.ToDump("Block 0: 0000\nBlock 2: 2222")
	if !IsMalformedBlockLineError(err) {
		t.Errorf("expected malformed block line error for gap, got %v", err)
	}
}

func TestParseDocument_UID(t *testing.T) {
	doc, err := ParseDocument("Block 0: 0102 0304 0506 0708 090A 0B0C 0D0E 0F10", Options{})
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if !bytes.Equal(doc.UID, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("UID = %X", doc.UID)
	}
	if len(doc.Blocks) != 1 {
		t.Errorf("Blocks = %d, want 1", len(doc.Blocks))
	}
}

func TestConverter_Convert(t *testing.T) {
	conv := New(Options{})
	dump := sampleDump(2)

	res, err := conv.Convert("/tmp/card.dump", dump)
	if err != nil {
		t.Fatalf("Convert(dump) error = %v", err)
	}
	if res.From != FormatDump || res.To != FormatNFC {
		t.Errorf("formats = %s -> %s", res.From, res.To)
	}
	if res.Name != "card.nfc" {
		t.Errorf("Name = %q, want card.nfc", res.Name)
	}
	if res.Blocks != 2 {
		t.Errorf("Blocks = %d, want 2", res.Blocks)
	}

	back, err := conv.Convert(res.Name, res.Data)
	if err != nil {
		t.Fatalf("Convert(nfc) error = %v", err)
	}
	if back.Name != "card.dump" {
		t.Errorf("Name = %q, want card.dump", back.Name)
	}
	if !bytes.Equal(back.Data, dump) {
		t.Error("Convert round trip changed the payload")
	}

	if _, err := conv.Convert("card.txt", dump); !IsUnsupportedFormatError(err) {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}
