package render

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/sections"
)

func sampleDocument() Document {
	p := profile.New(sections.Tech)
	p = profile.SetScalar(p, profile.ScalarName, "Ada <Lovelace>")
	p = profile.SetContact(p, sections.ContactLinkedIn, "https://www.linkedin.com/in/ada")
	p = profile.SetListItemField(p, profile.ExperienceList, 0, profile.ExperienceCompany, "Analytical Engines Ltd")
	p = profile.SetNestedListItem(p, profile.ExperienceList, 0, profile.ExperienceBullets, 0, "Wrote Note G")
	return Render(p, sections.SectionsFor(sections.Tech), Options{})
}

func TestWriteHTML(t *testing.T) {
	var vp Viewport
	vp.ZoomIn()

	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleDocument(), vp); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"Ada &lt;Lovelace&gt;",
		"linkedin.com/in/ada",
		`id="section-experience"`,
		"<li>Wrote Note G</li>",
		"120%",
		"scale(1.20)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "https://www.") {
		t.Error("output contains an unstripped contact URL")
	}

	// Output must parse back into a tree.
	if _, err := html.Parse(strings.NewReader(out)); err != nil {
		t.Errorf("re-parse: %v", err)
	}
}

func TestWriteHTML_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, Document{Empty: true}, Viewport{}); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	if !strings.Contains(buf.String(), EmptyTitle) {
		t.Errorf("empty page missing prompt: %s", buf.String())
	}
	if strings.Contains(buf.String(), "lp-section") {
		t.Error("empty page should carry no sections")
	}
}

func TestTerminal(t *testing.T) {
	out := Terminal(sampleDocument(), 80)
	for _, want := range []string{"Ada <Lovelace>", "EXPERIENCE", "Analytical Engines Ltd", "Wrote Note G"} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(Terminal(Document{Empty: true}, 80), EmptyTitle) {
		t.Error("terminal empty state missing prompt")
	}
}
