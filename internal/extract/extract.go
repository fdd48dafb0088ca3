package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"docrisk-backend/internal/shared/storage/object"
)

// Format is one of the supported document encodings.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
	FormatTXT  Format = "txt"
	FormatMD   Format = "md"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Result is the plain text of a document plus what was learned while reading it.
type Result struct {
	Text   string
	Format Format
	// Pages is the page or slide count, zero for formats without pages.
	Pages int
}

// SupportedFormats lists the formats accepted by ExtractTextFromBytes.
func SupportedFormats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatPPTX, FormatTXT, FormatMD}
}

// ExtractTextFromBytes extracts text from an in-memory payload.
// It returns ErrUnsupportedFormat (wrapped) or an *ExtractionError on failure.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	format, err := DetectFormat(mimeType, fileName, data)
	if err != nil {
		return Result{}, err
	}

	var res Result
	switch format {
	case FormatPDF:
		res, err = extractPDF(data)
	case FormatDOCX:
		res, err = extractDOCX(data)
	case FormatPPTX:
		res, err = extractPPTX(data)
	case FormatMD:
		res, err = extractMarkdown(data)
	default:
		res, err = extractPlainText(data)
	}
	if err != nil {
		return Result{}, extractionFailed(format, err)
	}
	res.Format = format
	res.Text = normalizeNewlines(res.Text)
	if strings.TrimSpace(res.Text) == "" {
		return Result{}, extractionFailed(format, ErrEmptyText)
	}
	return res, nil
}

// FromStore reads a stored object, refusing payloads above maxBytes, and extracts its text.
func FromStore(ctx context.Context, store object.ObjectStore, storageKey, mimeType, fileName string, maxBytes int64) (Result, error) {
	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return Result{}, fmt.Errorf("open object key=%s: %w", storageKey, err)
	}
	defer body.Close()

	reader := io.Reader(body)
	if maxBytes > 0 {
		reader = io.LimitReader(body, maxBytes+1)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return Result{}, fmt.Errorf("read object key=%s: %w", storageKey, err)
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return Result{}, ErrTooLarge
	}
	return ExtractTextFromBytes(ctx, raw, mimeType, fileName)
}

// DetectFormat resolves the format from the declared MIME type, then the file
// extension, then the content itself.
func DetectFormat(mimeType, fileName string, data []byte) (Format, error) {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	ext := strings.ToLower(filepath.Ext(fileName))

	switch clean {
	case mimePDF:
		return FormatPDF, nil
	case mimeDOCX:
		return FormatDOCX, nil
	case mimePPTX:
		return FormatPPTX, nil
	case "text/markdown", "text/x-markdown":
		return FormatMD, nil
	case "text/plain":
		if ext == ".md" || ext == ".markdown" {
			return FormatMD, nil
		}
		return FormatTXT, nil
	}

	if f, ok := formatFromExt(ext); ok {
		return f, nil
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return FormatPDF, nil
	}
	if f, ok := formatFromZip(data); ok {
		return f, nil
	}

	desc := clean
	if desc == "" {
		desc = ext
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, desc)
}

func formatFromExt(ext string) (Format, bool) {
	switch ext {
	case ".pdf":
		return FormatPDF, true
	case ".docx":
		return FormatDOCX, true
	case ".pptx":
		return FormatPPTX, true
	case ".txt", ".text":
		return FormatTXT, true
	case ".md", ".markdown":
		return FormatMD, true
	default:
		return "", false
	}
}

func formatFromZip(data []byte) (Format, bool) {
	if len(data) == 0 {
		return "", false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", false
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			return FormatDOCX, true
		case "ppt/presentation.xml":
			return FormatPPTX, true
		}
	}
	return "", false
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
