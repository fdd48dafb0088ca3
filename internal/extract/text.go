package extract

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns UTF-8 input as is and decodes anything else as Windows-1252,
// which is a superset of Latin-1 for printable characters.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func extractPlainText(data []byte) (Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}
