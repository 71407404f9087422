// Package extract turns source documents into text for the transcript
// parser. Text files pass through; PDFs go through an external converter.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/service"
)

var pdfMagic = []byte("%PDF-")

// PlainText passes text documents through unchanged.
type PlainText struct{}

// Extract implements service.TextExtractor.
func (PlainText) Extract(ctx context.Context, src service.Source) (service.ExtractedDocument, error) {
	if err := ctx.Err(); err != nil {
		return service.ExtractedDocument{}, err
	}

	data, err := readSource(src)
	if err != nil {
		return service.ExtractedDocument{}, err
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return service.ExtractedDocument{}, fmt.Errorf("%w: %s is a PDF; configure extractor.command", common.ErrUnsupportedFormat, Label(src))
	}
	if !utf8.Valid(data) {
		return service.ExtractedDocument{}, fmt.Errorf("%w: %s is not UTF-8 text", common.ErrUnsupportedFormat, Label(src))
	}

	return service.ExtractedDocument{
		Source: Label(src),
		Text:   normalize(string(data)),
	}, nil
}

// Label is the display name of a source.
func Label(src service.Source) string {
	switch {
	case src.Name != "":
		return src.Name
	case src.Path != "":
		return filepath.Base(src.Path)
	}
	return "document"
}

// IsPDF reports whether a source looks like a PDF by name or content.
func IsPDF(src service.Source) bool {
	for _, name := range []string{src.Name, src.Path} {
		if strings.EqualFold(filepath.Ext(name), ".pdf") {
			return true
		}
	}
	return bytes.HasPrefix(src.Data, pdfMagic)
}

func readSource(src service.Source) ([]byte, error) {
	if src.Data != nil {
		return src.Data, nil
	}
	if src.Path == "" {
		return nil, fmt.Errorf("%w: source has neither data nor path", common.ErrEmptyDocument)
	}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Path, err)
	}
	return data, nil
}

// normalize converts CRLF line endings and page breaks to newlines and strips
// a UTF-8 byte order mark.
func normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	return strings.NewReplacer("\r\n", "\n", "\f", "\n").Replace(text)
}
