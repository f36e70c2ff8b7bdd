package fileio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nedpals/nfc-dump-converter/converter"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "card.dump")

	if err := WriteFile(path, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// Overwrite replaces the previous content entirely.
	if err := WriteFile(path, []byte{0x03}); err != nil {
		t.Fatalf("WriteFile() overwrite error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0x03}) {
		t.Errorf("content = %X, want 03", got)
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.nfc"))
	if !errors.Is(err, converter.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	conv := converter.New(converter.Options{})

	dump := bytes.Repeat([]byte{0xAA}, 32)
	input := filepath.Join(dir, "tag.dump")
	if err := os.WriteFile(input, dump, 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("beside input", func(t *testing.T) {
		out, err := ConvertFile(conv, input, "")
		if err != nil {
			t.Fatalf("ConvertFile() error = %v", err)
		}
		if out.Path != filepath.Join(dir, "tag.nfc") {
			t.Errorf("Path = %q", out.Path)
		}
		if out.Size != 32 {
			t.Errorf("Size = %d, want 32", out.Size)
		}
		text, err := os.ReadFile(out.Path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(text), "Block 1: AAAA AAAA AAAA AAAA AAAA AAAA AAAA AAAA") {
			t.Errorf("unexpected output:\n%s", text)
		}
	})

	t.Run("into output dir and back", func(t *testing.T) {
		outDir := filepath.Join(dir, "out")
		out, err := ConvertFile(conv, filepath.Join(dir, "tag.nfc"), outDir)
		if err != nil {
			t.Fatalf("ConvertFile() error = %v", err)
		}
		if out.Path != filepath.Join(outDir, "tag.dump") {
			t.Errorf("Path = %q", out.Path)
		}
		got, err := os.ReadFile(out.Path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, dump) {
			t.Error("round trip through files changed the payload")
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		other := filepath.Join(dir, "notes.txt")
		os.WriteFile(other, []byte("hello"), 0644)
		if _, err := ConvertFile(conv, other, ""); !converter.IsUnsupportedFormatError(err) {
			t.Errorf("expected unsupported format error, got %v", err)
		}
	})
}
