// Package export downloads generated documents and inspects them.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/nomoreats/builder/internal/profile"
)

// MaxDocumentSize caps a downloaded document.
const MaxDocumentSize = 32 << 20

// ErrTooLarge is returned when a document exceeds MaxDocumentSize.
var ErrTooLarge = errors.New("document exceeds size limit")

// Info describes an exported document.
type Info struct {
	Pages int   `json:"pages"`
	Bytes int64 `json:"bytes"`
}

// Filename returns the download name for p: "<name>_<field>.pdf", with
// "resume" and "general" standing in for a missing name or field.
func Filename(p profile.Profile) string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "resume"
	}
	field := strings.TrimSpace(string(p.ProfessionalField))
	if field == "" {
		field = "general"
	}
	r := strings.NewReplacer("/", "_", "\\", "_", "\x00", "")
	return r.Replace(name) + "_" + r.Replace(field) + ".pdf"
}

// Fetch downloads the document at locator.
func Fetch(ctx context.Context, hc *http.Client, locator string) ([]byte, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading document: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Inspect parses data as a PDF and reports its page count.
func Inspect(data []byte) (info Info, err error) {
	defer func() {
		// The PDF reader panics on some malformed inputs.
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("parsing document: %w", err)
	}
	return Info{Pages: r.NumPage(), Bytes: int64(len(data))}, nil
}

// Text extracts the plain text of every page, separated by form feeds.
func Text(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting text: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parsing document: %w", err)
	}

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		t, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", i, err)
		}
		if i > 1 {
			sb.WriteByte('\f')
		}
		sb.WriteString(t)
	}
	return sb.String(), nil
}

// Save writes data to dir/name, creating dir if needed, and returns the path.
func Save(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing document: %w", err)
	}
	return path, nil
}
