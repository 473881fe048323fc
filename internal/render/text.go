package render

import (
	"bufio"
	"io"
	"strings"
)

// Empty-state copy shown before any identifying detail is entered.
const (
	EmptyTitle = "Your resume will appear here"
	EmptyHint  = "Start typing your details to see the real-time preview."
)

// Text returns the plain-text rendering of d.
func Text(d Document) string {
	var sb strings.Builder
	_ = WriteText(&sb, d)
	return sb.String()
}

// WriteText writes d as plain text, one line per visual line of the page.
func WriteText(w io.Writer, d Document) error {
	bw := bufio.NewWriter(w)
	line := func(s string) { bw.WriteString(s); bw.WriteByte('\n') }

	if d.Empty {
		line(EmptyTitle)
		line(EmptyHint)
		return bw.Flush()
	}

	line(d.Header.Name)
	if len(d.Header.Contact) > 0 {
		items := make([]string, len(d.Header.Contact))
		for i, c := range d.Header.Contact {
			items[i] = c.Text
		}
		line(strings.Join(items, " | "))
	}

	for _, s := range d.Sections {
		line("")
		line(strings.ToUpper(s.Title))
		if s.Text != "" {
			line(s.Text)
		}
		for _, e := range s.Entries {
			head := e.Heading + e.Suffix
			if e.Aside != "" {
				head += "  " + e.Aside
			}
			line(head)
			if e.Sub != "" {
				line(e.Sub)
			}
			if e.Link != "" {
				line(e.Link)
			}
			if e.Text != "" {
				line(e.Text)
			}
			for _, b := range e.Bullets {
				line("  - " + b)
			}
		}
		for _, r := range s.Rows {
			line(r.String())
		}
		for _, b := range s.Bullets {
			line("  - " + b)
		}
	}
	return bw.Flush()
}
