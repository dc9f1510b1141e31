package docparse

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// parseText validates and normalises a plain-text upload.
func parseText(data []byte) (string, error) {
	// strip a UTF-8 BOM if present
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if !utf8.Valid(data) {
		return "", fmt.Errorf("text file is not valid utf-8")
	}

	// normalise line endings
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	return string(data), nil
}
