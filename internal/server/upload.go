package server

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/dream-ai/docuchat/internal/documents"
	"github.com/labstack/echo/v4"
)

const pdfContentType = "application/pdf"

// readPDF returns the uploaded "file" field after checking its declared type
// and that it parses as a PDF.
func readPDF(c echo.Context) (name string, data []byte, err error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "A PDF file must be uploaded in the 'file' field")
	}

	mediaType, _, _ := mime.ParseMediaType(fh.Header.Get(echo.HeaderContentType))
	if mediaType != pdfContentType {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "Only PDF files are supported")
	}

	f, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}

	if _, err := documents.Inspect(data); err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "The uploaded file is not a valid PDF")
	}
	return fh.Filename, data, nil
}
