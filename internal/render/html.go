package render

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WriteHTML writes a standalone HTML page showing d at the scale of vp. The
// markup is built as a node tree, so profile text is always escaped.
func WriteHTML(w io.Writer, d Document, vp Viewport) error {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	page := el(atom.Html, nil)
	root.AppendChild(page)

	head := el(atom.Head, nil)
	head.AppendChild(el(atom.Meta, attrs("charset", "utf-8")))
	title := el(atom.Title, nil)
	title.AppendChild(text(pageTitle(d)))
	head.AppendChild(title)
	style := el(atom.Style, nil)
	style.AppendChild(text(stylesheet))
	head.AppendChild(style)
	page.AppendChild(head)

	body := el(atom.Body, nil)
	page.AppendChild(body)

	if d.Empty {
		empty := el(atom.Div, attrs("class", "lp-empty"))
		h := el(atom.H3, nil)
		h.AppendChild(text(EmptyTitle))
		p := el(atom.P, nil)
		p.AppendChild(text(EmptyHint))
		empty.AppendChild(h)
		empty.AppendChild(p)
		body.AppendChild(empty)
		return html.Render(w, root)
	}

	controls := el(atom.Div, attrs("class", "lp-zoom"))
	controls.AppendChild(text(vp.Label()))
	body.AppendChild(controls)

	wrapper := el(atom.Div, attrs(
		"class", "lp-page-wrapper",
		"style", fmt.Sprintf("transform: scale(%.2f); transform-origin: top center; height: %.0fpx", vp.Scale(), vp.PageHeight()),
	))
	body.AppendChild(wrapper)

	sheet := el(atom.Div, attrs("class", "lp-page"))
	wrapper.AppendChild(sheet)

	sheet.AppendChild(headerNode(d.Header))
	for _, s := range d.Sections {
		sheet.AppendChild(sectionNode(s))
	}
	return html.Render(w, root)
}

func pageTitle(d Document) string {
	if d.Empty || d.Header.Name == "" {
		return "Resume preview"
	}
	return d.Header.Name
}

func headerNode(h Header) *html.Node {
	n := el(atom.Div, attrs("class", "lp-header"))
	name := el(atom.H1, attrs("class", "lp-name"))
	name.AppendChild(text(h.Name))
	n.AppendChild(name)

	contact := el(atom.Div, attrs("class", "lp-contact"))
	for _, c := range h.Contact {
		item := el(atom.Span, attrs("class", "lp-contact-item", "data-key", string(c.Key)))
		item.AppendChild(text(c.Text))
		contact.AppendChild(item)
	}
	n.AppendChild(contact)
	return n
}

func sectionNode(s Section) *html.Node {
	n := el(atom.Div, attrs("class", "lp-section", "id", "section-"+string(s.ID)))
	h := el(atom.H2, attrs("class", "lp-section-title"))
	h.AppendChild(text(s.Title))
	n.AppendChild(h)

	if s.Text != "" {
		t := el(atom.Div, attrs("class", "lp-summary-text"))
		t.AppendChild(text(s.Text))
		n.AppendChild(t)
	}
	for _, e := range s.Entries {
		n.AppendChild(entryNode(e))
	}
	for _, r := range s.Rows {
		row := el(atom.Div, attrs("class", "lp-skill-row"))
		if r.Label != "" {
			strong := el(atom.Strong, nil)
			strong.AppendChild(text(r.Label + ": "))
			row.AppendChild(strong)
		}
		span := el(atom.Span, nil)
		span.AppendChild(text(r.Text))
		row.AppendChild(span)
		n.AppendChild(row)
	}
	if len(s.Bullets) > 0 {
		n.AppendChild(bulletList(s.Bullets))
	}
	return n
}

func entryNode(e Entry) *html.Node {
	n := el(atom.Div, attrs("class", "lp-item"))

	head := el(atom.Div, attrs("class", "lp-item-header"))
	strong := el(atom.Strong, nil)
	strong.AppendChild(text(e.Heading))
	head.AppendChild(strong)
	if e.Suffix != "" {
		head.AppendChild(text(e.Suffix))
	}
	if e.Aside != "" {
		aside := el(atom.Span, nil)
		aside.AppendChild(text(e.Aside))
		head.AppendChild(aside)
	}
	n.AppendChild(head)

	if e.Sub != "" {
		sub := el(atom.Div, attrs("class", "lp-item-sub"))
		i := el(atom.I, nil)
		i.AppendChild(text(e.Sub))
		sub.AppendChild(i)
		n.AppendChild(sub)
	}
	if e.Link != "" {
		sub := el(atom.Div, attrs("class", "lp-item-sub"))
		a := el(atom.A, attrs("href", e.Link))
		a.AppendChild(text(e.Link))
		sub.AppendChild(a)
		n.AppendChild(sub)
	}
	if e.Text != "" {
		t := el(atom.Div, attrs("class", "lp-summary-text"))
		t.AppendChild(text(e.Text))
		n.AppendChild(t)
	}
	n.AppendChild(bulletList(e.Bullets))
	return n
}

func bulletList(items []string) *html.Node {
	ul := el(atom.Ul, attrs("class", "lp-bullets"))
	for _, b := range items {
		li := el(atom.Li, nil)
		li.AppendChild(text(b))
		ul.AppendChild(li)
	}
	return ul
}

func el(a atom.Atom, attr []html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attr}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// attrs builds an attribute list from key/value pairs.
func attrs(kv ...string) []html.Attribute {
	out := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return out
}

const stylesheet = `
body { background: #e9ecef; font-family: Georgia, serif; margin: 0; padding: 24px; }
.lp-zoom { font: 12px sans-serif; text-align: right; margin-bottom: 8px; }
.lp-page-wrapper { display: flex; justify-content: center; }
.lp-page { width: 794px; min-height: 1122px; background: #fff; padding: 48px; box-sizing: border-box; }
.lp-name { text-align: center; margin: 0 0 4px; }
.lp-contact { text-align: center; font-size: 11px; }
.lp-contact-item + .lp-contact-item::before { content: " | "; }
.lp-section-title { font-size: 13px; text-transform: uppercase; border-bottom: 1px solid #000; }
.lp-item-header { display: flex; justify-content: space-between; }
.lp-empty { text-align: center; color: #6c757d; padding-top: 120px; font-family: sans-serif; }
`
