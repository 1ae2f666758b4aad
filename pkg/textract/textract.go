// Package textract turns uploaded source files into raw text. Plain text
// files are read through, PDFs are parsed locally, and scanned documents go
// to the remote layout-parsing OCR service.
package textract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextExtractor converts a stored file into raw document text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Extractor dispatches on file extension. ocr may be nil, in which case
// image formats are rejected and PDFs are parsed locally.
type Extractor struct {
	ocr *OCRClient
}

// New creates an Extractor. Pass a nil ocr client to run without the remote
// service.
func New(ocr *OCRClient) *Extractor {
	return &Extractor{ocr: ocr}
}

// ExtractText returns the raw text of the file at path.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	case ".pdf":
		if e.ocr != nil {
			return e.ocr.Parse(ctx, path, fileTypePDF)
		}
		return extractPDFText(path)
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff":
		if e.ocr == nil {
			return "", fmt.Errorf("image file %s requires the OCR service", path)
		}
		return e.ocr.Parse(ctx, path, fileTypeImage)
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}
