package documents

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF is returned when uploaded bytes cannot be read as a PDF.
var ErrNotPDF = errors.New("not a valid PDF")

// Page is the extracted text of one PDF page. Number is 0-based, the way
// page metadata has always been reported to clients.
type Page struct {
	Number int
	Text   string
}

// Inspect checks that data is a readable PDF and returns its page count.
func Inspect(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrNotPDF
	}
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return pdfCtx.PageCount, nil
}

// ExtractPages extracts text from each page of the PDF at filePath.
func ExtractPages(filePath string) ([]Page, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return pagesOf(doc)
}

// ExtractPagesFromBytes extracts text from each page of an in-memory PDF.
func ExtractPagesFromBytes(data []byte) ([]Page, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return pagesOf(doc)
}

// pagesOf skips pages without text; unreadable pages are treated the same way.
func pagesOf(doc *fitz.Document) ([]Page, error) {
	var pages []Page
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
