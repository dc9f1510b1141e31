package docparse

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF extracts plain text from PDF bytes. Pages that fail to decode are
// skipped so one bad page does not sink the document.
func parsePDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		// fall back to the whole-document extractor
		plain, err := reader.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("failed to extract pdf text: %w", err)
		}
		raw, err := io.ReadAll(plain)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf text: %w", err)
		}
		return string(raw), nil
	}

	return sb.String(), nil
}
