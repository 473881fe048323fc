package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/sections"
)

// buildPDF assembles a minimal PDF with n empty pages and a correct xref table.
func buildPDF(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for i := 0; i < n; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	for _, n := range []int{1, 2, 3} {
		data := buildPDF(t, n)
		info, err := Inspect(data)
		if err != nil {
			t.Fatalf("Inspect(%d pages): %v", n, err)
		}
		if info.Pages != n {
			t.Errorf("Pages = %d, want %d", info.Pages, n)
		}
		if info.Bytes != int64(len(data)) {
			t.Errorf("Bytes = %d, want %d", info.Bytes, len(data))
		}
	}
}

// buildTextPDF assembles a PDF with one page per text, each drawing its text with
// the default encoding.
func buildTextPDF(t *testing.T, texts ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	n := len(texts)
	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for i := 0; i < n; i++ {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents %d 0 R >>", 3+n+i))
	}
	for _, text := range texts {
		content := fmt.Sprintf("BT (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestText(t *testing.T) {
	text, err := Text(buildTextPDF(t, "Ada Lovelace", "Analytical Engines"))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	pages := strings.Split(text, "\f")
	if len(pages) != 2 {
		t.Fatalf("pages = %q, want 2", pages)
	}
	if !strings.Contains(pages[0], "Ada Lovelace") || !strings.Contains(pages[1], "Analytical Engines") {
		t.Errorf("text = %q", text)
	}
}

func TestText_EmptyPages(t *testing.T) {
	text, err := Text(buildPDF(t, 2))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if strings.TrimSpace(text) != "" {
		t.Errorf("text = %q, want blank", text)
	}
	if _, err := Text([]byte("not a pdf")); err == nil {
		t.Error("expected error for non-PDF input")
	}
}

func TestInspect_NotPDF(t *testing.T) {
	if _, err := Inspect([]byte("<html>not a pdf</html>")); err == nil {
		t.Error("expected error for non-PDF input")
	}
}

func TestFetch(t *testing.T) {
	data := buildPDF(t, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ada.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	got, err := Fetch(context.Background(), srv.Client(), srv.URL+"/ada.pdf")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("downloaded bytes differ")
	}

	if _, err := Fetch(context.Background(), srv.Client(), srv.URL+"/missing.pdf"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFetch_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := bytes.Repeat([]byte("x"), 1<<20)
		for i := 0; i <= MaxDocumentSize>>20; i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name string
		p    profile.Profile
		want string
	}{
		{"name and field", profile.Profile{Name: "Ada Lovelace", ProfessionalField: sections.Tech}, "Ada Lovelace_tech.pdf"},
		{"no name", profile.Profile{ProfessionalField: sections.Sales}, "resume_sales.pdf"},
		{"no field", profile.Profile{Name: "Ada"}, "Ada_general.pdf"},
		{"path separators", profile.Profile{Name: "a/b", ProfessionalField: sections.HR}, "a_b_hr.pdf"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filename(tc.p); got != tc.want {
				t.Errorf("Filename = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := Save(dir, "../escape.pdf", []byte("data"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("saved outside dir: %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
}
