// Package docparse turns uploaded document bytes (PDF, DOCX, TXT) into plain
// text for the ingestion pipeline.
package docparse

import (
	"path/filepath"
	"strings"

	"github.com/loaddesk/loaddesk/internal/pkg/textutil"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// FileType is the inferred document type.
type FileType string

const (
	TypePDF     FileType = "pdf"
	TypeDOCX    FileType = "docx"
	TypeTXT     FileType = "txt"
	TypeUnknown FileType = ""
)

// DetectType infers the file type from the filename extension.
func DetectType(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	case ".txt", ".text", ".md":
		return TypeTXT
	default:
		return TypeUnknown
	}
}

// Parse extracts cleaned plain text from document bytes.
// Returns ErrUnsupportedFileType for unknown extensions, ErrParseFailure when
// decoding fails and ErrEmptyDocument when no text survives cleaning.
func Parse(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch DetectType(filename) {
	case TypePDF:
		text, err = parsePDF(data)
	case TypeDOCX:
		text, err = parseDOCX(data)
	case TypeTXT:
		text, err = parseText(data)
	default:
		return "", errors.ErrUnsupportedFileType.WithMessagef("unsupported file type: %s", filepath.Ext(filename))
	}

	if err != nil {
		return "", errors.ErrParseFailure.WithCause(err)
	}

	text = textutil.CleanText(text)
	if text == "" {
		return "", errors.ErrEmptyDocument
	}
	return text, nil
}
