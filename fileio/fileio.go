// Package fileio reads conversion inputs from disk and writes outputs
// atomically, so a crashed or interrupted conversion never leaves a
// half-written file behind.
package fileio

import (
	"os"
	"path/filepath"

	"github.com/facebookgo/atomicfile"

	"github.com/nedpals/nfc-dump-converter/converter"
)

// DefaultFileMode is used for every written output.
const DefaultFileMode os.FileMode = 0644

// ReadFile reads path, wrapping failures as converter.ErrIO.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, converter.NewIOError("ReadFile", path, err)
	}
	return data, nil
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return converter.NewIOError("WriteFile", path, err)
	}

	f, err := atomicfile.New(path, DefaultFileMode)
	if err != nil {
		return converter.NewIOError("WriteFile", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Abort()
		return converter.NewIOError("WriteFile", path, err)
	}
	if err := f.Close(); err != nil {
		return converter.NewIOError("WriteFile", path, err)
	}
	return nil
}

// Output is a conversion written to disk.
type Output struct {
	*converter.Result
	Input string // Source path
	Path  string // Written path
	Size  int64  // Source size in bytes
}

// ConvertFile reads input, converts it with conv and writes the result next
// to the input, or into outDir when it is not empty.
func ConvertFile(conv *converter.Converter, input, outDir string) (*Output, error) {
	data, err := ReadFile(input)
	if err != nil {
		return nil, err
	}

	res, err := conv.Convert(input, data)
	if err != nil {
		return nil, err
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	path := filepath.Join(dir, res.Name)

	if err := WriteFile(path, res.Data); err != nil {
		return nil, err
	}

	return &Output{
		Result: res,
		Input:  input,
		Path:   path,
		Size:   int64(len(data)),
	}, nil
}
