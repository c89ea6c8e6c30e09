package scanning

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"golang.org/x/image/draw"
)

// transcribePrompt is the shared prompt used by the LLM recognizers
const transcribePrompt = `You are reading a photographed or scanned Brazilian receipt (cupom fiscal or nota fiscal).
Transcribe ALL text printed on the receipt exactly as it appears, line by line, in reading order.

Important:
- Keep numbers, dates and currency values exactly as printed (for example "15/03/2024" or "R$ 1.234,56")
- Keep labels such as "TOTAL", "SUBTOTAL", "VALOR TOTAL" or "Valor a pagar" on the same line as their values
- Do not translate, summarize or correct anything
- Do not add any commentary before or after the text
- Do not use markdown code blocks`

// Preprocessing controls how receipt images are prepared before recognition.
// It only affects recognition accuracy, never which fields can be extracted.
type Preprocessing struct {
	// MaxEdge bounds the longest side of the image in pixels; 0 keeps the original size
	MaxEdge int
	// Grayscale converts the image to shades of gray
	Grayscale bool
}

// DefaultPreprocessing returns the settings used when nothing is configured
func DefaultPreprocessing() Preprocessing {
	return Preprocessing{MaxEdge: 1200, Grayscale: true}
}

// Apply decodes the receipt, downsizes and converts it as configured and returns PNG data
func (p Preprocessing) Apply(data []byte, contentType string) ([]byte, error) {
	img, err := DecodeImage(data, contentType)
	if err != nil {
		return nil, err
	}

	img = BoundLongEdge(img, p.MaxEdge)
	if p.Grayscale {
		img = toGray(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeImage decodes JPEG, PNG, GIF, HEIC/HEIF images and the first page of PDFs
func DecodeImage(data []byte, contentType string) (image.Image, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	if mimeType == "application/pdf" {
		return pdfToImage(data)
	}

	// Check for HEIC/HEIF format (common on iPhones) - Go's standard image package doesn't support it
	if isHEICFormat(data) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") {
			return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// BoundLongEdge scales img down so its longest side is at most maxEdge pixels.
// Images already within the bound, or a non-positive bound, are returned unchanged.
func BoundLongEdge(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	long := max(w, h)
	if maxEdge <= 0 || long <= maxEdge {
		return img
	}

	nw := max(1, w*maxEdge/long)
	nh := max(1, h*maxEdge/long)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// pdfToImage renders the first page of a PDF receipt
func pdfToImage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Render the first page (most receipts are single page)
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files typically start with specific magic bytes
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// ftyp box at offset 4 with brand 'heic', 'heif', 'mif1' or 'msf1'
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
