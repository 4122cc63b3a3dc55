package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Result is the outcome of a text extraction.
type Result struct {
	Text  string
	Pages int
}

var (
	imageMimeRe = regexp.MustCompile(`(?i)^image/(png|jpeg|jpg|gif|webp)`)
	imageExtRe  = regexp.MustCompile(`(?i)\.(png|jpeg|jpg|gif|webp)$`)
)

// Extractor pulls plain text out of uploaded files. PDF text layers are read
// with github.com/ledongthuc/pdf; raster images go through the tesseract
// binary; everything else falls back to a raw UTF-8 read.
type Extractor struct {
	Tesseract     string
	TesseractLang string
	runner        Runner
}

// NewExtractor constructs an Extractor with the given tesseract binary and language.
func NewExtractor(tesseractBin, lang string) *Extractor {
	if tesseractBin == "" {
		tesseractBin = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &Extractor{Tesseract: tesseractBin, TesseractLang: lang, runner: execRunner{}}
}

// WithRunner overrides the command runner, for tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract dispatches on the declared mime type and file extension and returns
// raw text plus a page count. It only reads the file at path.
func (e *Extractor) Extract(ctx context.Context, path, mimeType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	switch {
	case isPDF(mimeType, fileName):
		return e.extractPDF(path)
	case isImage(mimeType, fileName):
		return e.extractImage(ctx, path)
	default:
		return extractRaw(path)
	}
}

func isPDF(mimeType, fileName string) bool {
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(mimeType)), "pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

func isImage(mimeType, fileName string) bool {
	if imageMimeRe.MatchString(mimeType) {
		return true
	}
	return imageExtRe.MatchString(fileName)
}

func (e *Extractor) extractPDF(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("pdf text layer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Result{}, fmt.Errorf("pdf text layer: %w", err)
	}

	pages := reader.NumPage()
	if pages < 1 {
		pages = 1
	}
	return Result{Text: strings.TrimSpace(buf.String()), Pages: pages}, nil
}

// extractImage runs tesseract against the image. OCR degrades to empty or
// low-quality text on unreadable glyphs instead of failing, so an error here
// means the binary itself could not run.
func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	args := []string{path, "stdout", "-l", e.TesseractLang}
	out, _, err := e.runner.Run(ctx, e.Tesseract, args...)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w", err)
	}
	return Result{Text: strings.TrimSpace(string(out)), Pages: 1}, nil
}

func extractRaw(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) || bytes.ContainsRune(data, 0) {
		return Result{}, fmt.Errorf("unreadable bytes: not valid utf-8 text")
	}
	return Result{Text: strings.TrimSpace(string(data)), Pages: 1}, nil
}
