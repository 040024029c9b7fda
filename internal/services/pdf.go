package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

const pdfMagic = "%PDF-"

// MaxPDFSize caps both uploaded and downloaded documents.
const MaxPDFSize = 32 << 20 // 32 MB

// PDFService turns a PDF, given as a URL, a local path or raw bytes, into
// plain text.
type PDFService struct {
	client   *http.Client
	maxBytes int64
}

func NewPDFService(client *http.Client) *PDFService {
	if client == nil {
		client = http.DefaultClient
	}
	return &PDFService{client: client, maxBytes: MaxPDFSize}
}

// Extract reads source as an http(s) URL when it has that scheme and as a
// local file path otherwise. Only for trusted callers such as the CLI.
func (s *PDFService) Extract(ctx context.Context, source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("%w: pdf source is required", ErrInput)
	}
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s.ExtractURL(ctx, source)
	}
	return s.ExtractFile(source)
}

func (s *PDFService) ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read pdf: %w", ErrRetrieval, err)
	}
	return s.ExtractBytes(data)
}

func (s *PDFService) ExtractReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read pdf: %w", ErrRetrieval, err)
	}
	return s.ExtractBytes(data)
}

// ExtractURL downloads url and extracts its text. Non-2xx statuses and
// transport failures are retrieval errors; a body that is not a PDF is an
// input error.
func (s *PDFService) ExtractURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", ErrInput, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch pdf: %w", ErrRetrieval, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: fetch pdf: status %d", ErrRetrieval, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read pdf body: %w", ErrRetrieval, err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: document exceeds %d bytes", ErrInput, s.maxBytes)
	}
	if !isPDFContentType(resp.Header.Get("Content-Type")) && !bytes.HasPrefix(data, []byte(pdfMagic)) {
		return "", fmt.Errorf("%w: URL did not return a PDF", ErrInput)
	}
	return s.ExtractBytes(data)
}

// ExtractBytes concatenates the text of every page that yields any, in page
// order, separated by newlines. Pages the parser cannot read are skipped.
func (s *PDFService) ExtractBytes(data []byte) (string, error) {
	r, err := openPDF(data)
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if text := pageText(r, i); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// Inspect returns the page count of a PDF without extracting text.
func (s *PDFService) Inspect(data []byte) (int, error) {
	r, err := openPDF(data)
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

func openPDF(data []byte) (r *pdf.Reader, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(pdfMagic)) {
		return nil, fmt.Errorf("%w: file is not a PDF", ErrInput)
	}
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("%w: malformed pdf: %v", ErrInput, p)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrInput, err)
	}
	return r, nil
}

func pageText(r *pdf.Reader, num int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(content)
}

func isPDFContentType(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	return err == nil && mediaType == "application/pdf"
}
