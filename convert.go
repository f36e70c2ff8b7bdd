package main

import (
	"log"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/nedpals/nfc-dump-converter/converter"
	"github.com/nedpals/nfc-dump-converter/fileio"
)

// convertFiles converts each input and logs one status line per file.
// It returns the number of failed conversions.
func convertFiles(logger *log.Logger, conv *converter.Converter, inputs []string, outDir string) int {
	failed := 0
	for _, input := range inputs {
		out, err := fileio.ConvertFile(conv, input, outDir)
		if err != nil {
			failed++
			logger.Printf("%s: %s", filepath.Base(input), converter.StatusMessage(nil, err))
			continue
		}
		logger.Printf("%s: %s -> %s (%s, %d blocks)",
			filepath.Base(input),
			converter.StatusMessage(out.Result, nil),
			out.Path,
			humanize.Bytes(uint64(out.Size)),
			out.Blocks,
		)
	}
	return failed
}
