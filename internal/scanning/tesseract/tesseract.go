// Package tesseract recognizes receipt text with a local Tesseract install.
// It needs cgo and the tesseract/leptonica libraries, so only the binary imports it.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer implements scanning.Recognizer with gosseract
type Recognizer struct {
	language     string
	tessdataPath string
	pageSegMode  gosseract.PageSegMode
}

// New creates a Recognizer. Language defaults to Portuguese ("por");
// an empty tessdataPath uses the library default.
func New(language, tessdataPath string) *Recognizer {
	if language == "" {
		language = "por"
	}
	return &Recognizer{
		language:     language,
		tessdataPath: tessdataPath,
		pageSegMode:  gosseract.PSM_AUTO,
	}
}

// Recognize runs OCR over a PNG image
func (r *Recognizer) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// gosseract clients are not safe for concurrent use, so each call gets its own
	client := gosseract.NewClient()
	defer client.Close()

	if r.tessdataPath != "" {
		if err := client.SetTessdataPrefix(r.tessdataPath); err != nil {
			return "", fmt.Errorf("setting tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(r.language); err != nil {
		return "", fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetPageSegMode(r.pageSegMode); err != nil {
		return "", fmt.Errorf("setting page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	return text, nil
}

// Close is a no-op; clients are released after every call
func (r *Recognizer) Close() error {
	return nil
}
