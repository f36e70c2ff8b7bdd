package converter

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// BlockSize is the size in bytes of one tag memory block.
	BlockSize = 16

	// UIDLength is the number of leading bytes of block 0 used as the UID.
	UIDLength = 6

	blockLinePrefix = "Block "
)

var blockLabel = regexp.MustCompile(`^Block (\d+):`)

// Block is one tag memory block. Blocks built from a dump whose length is
// not a multiple of BlockSize end with a short block.
type Block []byte

// String renders the block as grouped uppercase hex ("0000 FFFF ...").
func (b Block) String() string {
	return GroupHex(strings.ToUpper(hex.EncodeToString(b)))
}

// Header holds the metadata fields written above the block lines. Every
// field except the UID is a fixed template value.
type Header struct {
	Filetype          string
	Version           int
	DeviceType        string
	ATQA              []byte
	SAK               []byte
	ClassicType       string
	DataFormatVersion int
}

// DefaultHeader is the Mifare Classic 1K template used for every generated file.
var DefaultHeader = Header{
	Filetype:          "Flipper NFC device",
	Version:           4,
	DeviceType:        "Mifare Classic",
	ATQA:              []byte{0x00, 0x04},
	SAK:               []byte{0x08},
	ClassicType:       "1K",
	DataFormatVersion: 2,
}

// Render returns the header text for the given UID, without a trailing newline.
func (h Header) Render(uid []byte) string {
	lines := []string{
		"Filetype: " + h.Filetype,
		"Version: " + strconv.Itoa(h.Version),
		"# Device type can be ISO14443-3A, ISO14443-3B, ISO14443-4A, ISO14443-4B, ISO15693-3, FeliCa, NTAG/Ultralight, Mifare Classic, Mifare DESFire, SLIX, ST25TB, EMV",
		"Device type: " + h.DeviceType,
		"# UID is common for all formats",
		"UID: " + FormatBytes(uid),
		"# ISO14443-3A specific data",
		"ATQA: " + FormatBytes(h.ATQA),
		"SAK: " + FormatBytes(h.SAK),
		"# Mifare Classic specific data",
		"Mifare Classic type: " + h.ClassicType,
		"Data format version: " + strconv.Itoa(h.DataFormatVersion),
		"# Mifare Classic blocks, '??' means unknown data",
	}
	return strings.Join(lines, "\n")
}

// Document is an NFC file: a templated header plus blocks in index order.
type Document struct {
	Header Header
	UID    []byte
	Blocks []Block
}

// NewDocument chunks data into blocks of BlockSize bytes and derives the UID
// from the start of block 0. The final block is kept short rather than padded.
// The blocks alias data.
func NewDocument(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, NewInsufficientDataError("BinaryToText")
	}

	blocks := make([]Block, 0, (len(data)+BlockSize-1)/BlockSize)
	for i := 0; i < len(data); i += BlockSize {
		end := min(i+BlockSize, len(data))
		blocks = append(blocks, Block(data[i:end]))
	}

	uid := blocks[0]
	if len(uid) > UIDLength {
		uid = uid[:UIDLength]
	}

	return &Document{
		Header: DefaultHeader,
		UID:    uid,
		Blocks: blocks,
	}, nil
}

// String renders the complete NFC file: header, then one "Block N:" line per
// block, separated by "\n" with no trailing newline.
func (d *Document) String() string {
	var sb strings.Builder
	sb.WriteString(d.Header.Render(d.UID))
	for i, block := range d.Blocks {
		fmt.Fprintf(&sb, "\nBlock %d: %s", i, block)
	}
	return sb.String()
}

// Bytes concatenates all blocks in index order.
func (d *Document) Bytes() []byte {
	size := 0
	for _, block := range d.Blocks {
		size += len(block)
	}
	out := make([]byte, 0, size)
	for _, block := range d.Blocks {
		out = append(out, block...)
	}
	return out
}

// ParseDocument reads the block lines of an NFC file. Header lines are not
// interpreted; the returned document carries DefaultHeader and the UID of
// its first block. Blocks are kept in file order unless opts.StrictBlockIndex
// asks for the printed indices to be checked against that order.
func ParseDocument(text string, opts Options) (*Document, error) {
	const op = "TextToBinary"

	var blocks []Block
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, blockLinePrefix) {
			continue
		}
		lineNo := i + 1

		m := blockLabel.FindStringSubmatch(line)
		if m == nil {
			return nil, NewMalformedBlockLineError(op, lineNo, "missing block label", nil)
		}
		if opts.StrictBlockIndex {
			index, err := strconv.Atoi(m[1])
			if err != nil || index != len(blocks) {
				return nil, NewMalformedBlockLineError(op, lineNo,
					fmt.Sprintf("block index %s out of order, expected %d", m[1], len(blocks)), err)
			}
		}

		payload := strings.ToLower(stripWhitespace(line[len(m[0]):]))
		if payload == "" {
			return nil, NewMalformedBlockLineError(op, lineNo, "empty block data", nil)
		}
		data, err := hex.DecodeString(payload)
		if err != nil {
			return nil, NewMalformedBlockLineError(op, lineNo, "invalid block data", err)
		}
		blocks = append(blocks, Block(data))
	}

	if len(blocks) == 0 {
		return nil, NewEmptyInputError(op)
	}

	uid := blocks[0]
	if len(uid) > UIDLength {
		uid = uid[:UIDLength]
	}

	return &Document{
		Header: DefaultHeader,
		UID:    uid,
		Blocks: blocks,
	}, nil
}
