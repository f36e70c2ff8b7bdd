// Package converter translates NFC tag memory dumps between the line-oriented
// Flipper NFC text format and raw binary dumps of 16-byte blocks.
//
// The functions in this package are pure: they never touch the file system
// and hold no state between calls, so they are safe for concurrent use.
package converter

// Options tunes parsing of NFC text.
type Options struct {
	// StrictBlockIndex rejects files whose "Block N:" indices do not count
	// up from zero in file order. By default the printed index is ignored
	// and file order alone decides block order.
	StrictBlockIndex bool
}

// TextToBinary parses the block lines of an NFC file and returns the
// concatenated block bytes in file order.
func TextToBinary(text string) ([]byte, error) {
	return New(Options{}).ToDump(text)
}

// BinaryToText renders a raw dump as an NFC file with the Mifare Classic
// header template. It fails with ErrInsufficientData for an empty dump.
func BinaryToText(data []byte) (string, error) {
	return New(Options{}).ToNFC(data)
}

// Converter applies a fixed set of Options to every conversion.
type Converter struct {
	opts Options
}

// New creates a Converter.
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Options returns the options the converter was created with.
func (c *Converter) Options() Options {
	return c.opts
}

// ToDump converts NFC text to dump bytes.
func (c *Converter) ToDump(text string) ([]byte, error) {
	doc, err := ParseDocument(text, c.opts)
	if err != nil {
		return nil, err
	}
	return doc.Bytes(), nil
}

// ToNFC converts dump bytes to NFC text.
func (c *Converter) ToNFC(data []byte) (string, error) {
	doc, err := NewDocument(data)
	if err != nil {
		return "", err
	}
	return doc.String(), nil
}

// Result describes a finished conversion.
type Result struct {
	From   Format
	To     Format
	Name   string // Suggested output file name
	Data   []byte
	Blocks int
	UID    []byte
}

// Convert detects the format of the named input and converts it to the
// other format.
func (c *Converter) Convert(name string, data []byte) (*Result, error) {
	from, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}

	res := &Result{From: from, To: from.Opposite(), Name: OutputName(name, from.Opposite())}
	var doc *Document
	switch from {
	case FormatNFC:
		if doc, err = ParseDocument(string(data), c.opts); err != nil {
			return nil, err
		}
		res.Data = doc.Bytes()
	default:
		if doc, err = NewDocument(data); err != nil {
			return nil, err
		}
		res.Data = []byte(doc.String())
	}
	res.Blocks = len(doc.Blocks)
	res.UID = doc.UID
	return res, nil
}
