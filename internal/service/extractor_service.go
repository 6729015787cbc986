package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// TextExtractor pulls the text layer out of PDF documents. It never fails on
// document content: malformed or image-only PDFs yield an empty string.
type TextExtractor struct {
	logger *zap.Logger
}

func NewTextExtractor(logger *zap.Logger) *TextExtractor {
	return &TextExtractor{
		logger: logger,
	}
}

// ExtractText returns the concatenated page text of a PDF payload, or "" when
// there is no machine-readable text.
func (s *TextExtractor) ExtractText(document []byte) (text string) {
	if len(document) == 0 {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("PDF extraction panicked", zap.Any("panic", r))
			text = ""
		}
	}()

	doc, err := fitz.NewFromMemory(document)
	if err != nil {
		s.logger.Warn("Failed to open PDF", zap.Int("size", len(document)), zap.Error(err))
		return ""
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}

		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	text = strings.TrimSpace(textBuilder.String())
	s.logger.Info("PDF text extracted",
		zap.Int("pages", doc.NumPage()),
		zap.Int("text_length", len(text)),
	)
	return text
}

// ReadDocument loads a document from disk. Only I/O problems are errors.
func (s *TextExtractor) ReadDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return data, nil
}
