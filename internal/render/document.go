// Package render projects a profile and its active-section list onto the
// document shown in the live preview, and owns the preview's zoom state.
//
// Render is a pure function: it reads the profile and never retains it.
package render

import (
	"strings"

	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/sections"
)

// AnchorPolicy decides which list entries gate an anchored section.
type AnchorPolicy int

const (
	// AnchorFirst shows an anchored section only when the first entry has its
	// anchor attribute set. Later entries are never consulted.
	AnchorFirst AnchorPolicy = iota
	// AnchorAny shows an anchored section when any entry has its anchor
	// attribute set, and lists populated entries before unpopulated ones.
	AnchorAny
)

// ParseAnchorPolicy maps "first" and "any" to a policy. Anything else is
// AnchorFirst.
func ParseAnchorPolicy(s string) AnchorPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "any") {
		return AnchorAny
	}
	return AnchorFirst
}

func (a AnchorPolicy) String() string {
	if a == AnchorAny {
		return "any"
	}
	return "first"
}

// Options tune rendering.
type Options struct {
	Anchor AnchorPolicy
}

// Placeholder texts for unset entry headings.
const (
	PlaceholderRole        = "Role"
	PlaceholderInstitution = "Institution"
)

// Document is the rendered preview. When Empty is set the preview shows the
// empty-state prompt and Header and Sections are zero.
type Document struct {
	Empty    bool      `json:"empty"`
	Header   Header    `json:"header"`
	Sections []Section `json:"sections"`
}

// Header is the personal-information block, always rendered first.
type Header struct {
	Name    string        `json:"name"`
	Contact []ContactItem `json:"contact,omitempty"`
}

// ContactItem is one entry of the contact line.
type ContactItem struct {
	Key  sections.ContactKey `json:"key"`
	Text string              `json:"text"`
}

// Section is one visible document section. Exactly one of Text, Entries,
// Rows or Bullets carries the content, depending on the section kind.
type Section struct {
	ID      sections.ID `json:"id"`
	Title   string      `json:"title"`
	Text    string      `json:"text,omitempty"`
	Entries []Entry     `json:"entries,omitempty"`
	Rows    []Row       `json:"rows,omitempty"`
	Bullets []string    `json:"bullets,omitempty"`
}

// Entry is one item of a list section such as an experience or award.
type Entry struct {
	Heading string   `json:"heading"`
	Suffix  string   `json:"suffix,omitempty"`
	Aside   string   `json:"aside,omitempty"`
	Sub     string   `json:"sub,omitempty"`
	Link    string   `json:"link,omitempty"`
	Text    string   `json:"text,omitempty"`
	Bullets []string `json:"bullets"`
}

// Row is a labelled line such as a skill category or a coursework row.
type Row struct {
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

func (r Row) String() string {
	if r.Label == "" {
		return r.Text
	}
	return r.Label + ": " + r.Text
}

// Render builds the document for p. Sections appear in the order of active;
// unknown identifiers and the personal section are skipped, since the header
// is rendered unconditionally.
func Render(p profile.Profile, active []sections.ID, opts Options) Document {
	if p.Name == "" && p.Contact.Email == "" {
		return Document{Empty: true}
	}

	doc := Document{Header: renderHeader(p)}
	seen := make(map[sections.ID]bool, len(active))
	for _, id := range active {
		if seen[id] {
			continue
		}
		seen[id] = true
		if s, ok := renderSection(p, id, opts); ok {
			doc.Sections = append(doc.Sections, s)
		}
	}
	return doc
}

// DisplayURL strips the scheme and a leading "www." from a stored URL. The
// stored value is left alone; only the displayed text changes.
func DisplayURL(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := strings.TrimPrefix(s, "https://")
		next = strings.TrimPrefix(next, "http://")
		next = strings.TrimPrefix(next, "www.")
		if next == s {
			return strings.ReplaceAll(s, "https://", "")
		}
		s = next
	}
}

func renderHeader(p profile.Profile) Header {
	c := p.Contact
	h := Header{Name: p.Name}
	add := func(k sections.ContactKey, v string, url bool) {
		if v == "" {
			return
		}
		if url {
			v = DisplayURL(v)
		}
		h.Contact = append(h.Contact, ContactItem{Key: k, Text: v})
	}
	add(sections.ContactEmail, c.Email, false)
	add(sections.ContactPhone, c.Phone, false)
	add(sections.ContactLocation, c.Location, false)
	add(sections.ContactLinkedIn, c.LinkedIn, true)
	add(sections.ContactGitHub, c.GitHub, true)
	add(sections.ContactPortfolio, c.Portfolio, true)
	return h
}

func renderSection(p profile.Profile, id sections.ID, opts Options) (Section, bool) {
	s := Section{ID: id, Title: sections.Title(id)}
	switch id {
	case sections.Summary:
		if p.Summary == "" {
			return s, false
		}
		s.Text = p.Summary
	case sections.Experience:
		s.Entries = anchoredEntries(p.Experience, profile.ExperienceCompany, opts.Anchor, experienceEntry)
	case sections.EducationList:
		s.Entries = anchoredEntries(p.Education, profile.EducationInstitution, opts.Anchor, educationEntry)
	case sections.Projects:
		s.Entries = anchoredEntries(p.Projects, profile.ProjectName, opts.Anchor, projectEntry)
	case sections.Publications:
		s.Entries = anchoredEntries(p.Publications, profile.PublicationTitle, opts.Anchor, publicationEntry)
	case sections.Awards:
		s.Entries = anchoredEntries(p.Awards, profile.AwardTitle, opts.Anchor, awardEntry)
	case sections.Volunteer:
		s.Entries = anchoredEntries(p.Volunteer, profile.VolunteerOrganization, opts.Anchor, volunteerEntry)
	case sections.Skills:
		if len(p.Skills) == 0 {
			return s, false
		}
		s.Rows = skillRows(p.Skills)
		return s, true
	case sections.Certifications:
		s.Bullets = nonBlank(p.Certifications)
		return s, len(s.Bullets) > 0
	case sections.Languages:
		langs := nonBlank(p.Languages)
		if len(langs) == 0 {
			return s, false
		}
		s.Text = strings.Join(langs, ", ")
	case sections.Coursework:
		if major := nonBlank(p.Coursework.Major); len(major) > 0 {
			s.Rows = append(s.Rows, Row{Label: "Major", Text: strings.Join(major, ", ")})
		}
		if minor := nonBlank(p.Coursework.Minor); len(minor) > 0 {
			s.Rows = append(s.Rows, Row{Label: "Minor", Text: strings.Join(minor, ", ")})
		}
		return s, len(s.Rows) > 0
	default:
		return s, false
	}
	if id.Anchored() {
		return s, len(s.Entries) > 0
	}
	return s, true
}

// anchoredEntries returns nil when the section must be hidden under policy,
// otherwise one Entry per list element.
func anchoredEntries[T any](items []T, anchor profile.Field[T], policy AnchorPolicy, entry func(T) Entry) []Entry {
	if len(items) == 0 {
		return nil
	}
	populated := func(it T) bool { return anchor.Get(it) != "" }

	ordered := items
	switch policy {
	case AnchorAny:
		ordered = make([]T, 0, len(items))
		for _, it := range items {
			if populated(it) {
				ordered = append(ordered, it)
			}
		}
		if len(ordered) == 0 {
			return nil
		}
		for _, it := range items {
			if !populated(it) {
				ordered = append(ordered, it)
			}
		}
	default:
		if !populated(items[0]) {
			return nil
		}
	}

	out := make([]Entry, len(ordered))
	for i, it := range ordered {
		out[i] = entry(it)
	}
	return out
}

func experienceEntry(e profile.Experience) Entry {
	return Entry{
		Heading: orPlaceholder(e.Role, PlaceholderRole),
		Aside:   dateRange(e.StartDate, e.EndDate),
		Sub:     joinNonEmpty(", ", e.Company, e.Location),
		Bullets: nonBlank(e.Description),
	}
}

func educationEntry(e profile.Education) Entry {
	sub := e.Degree
	if e.GPA != "" {
		sub = strings.TrimSpace(sub + " (GPA: " + e.GPA + ")")
	}
	return Entry{
		Heading: orPlaceholder(e.Institution, PlaceholderInstitution),
		Aside:   e.GraduationDate,
		Sub:     joinNonEmpty(", ", sub, e.Location),
		Bullets: []string{},
	}
}

func projectEntry(p profile.Project) Entry {
	return Entry{
		Heading: p.Name,
		Aside:   p.Technologies,
		Link:    p.DemoLink,
		Bullets: nonBlank(p.Description),
	}
}

func publicationEntry(p profile.Publication) Entry {
	return Entry{
		Heading: p.Title,
		Suffix:  citation(p.Publisher, p.Date),
		Text:    p.Summary,
		Bullets: []string{},
	}
}

func awardEntry(a profile.Award) Entry {
	return Entry{
		Heading: a.Title,
		Suffix:  citation(a.Awarder, a.Date),
		Bullets: []string{},
	}
}

func volunteerEntry(v profile.Volunteer) Entry {
	return Entry{
		Heading: orPlaceholder(v.Role, PlaceholderRole),
		Aside:   dateRange(v.StartDate, v.EndDate),
		Sub:     v.Organization,
		Bullets: nonBlank(v.Description),
	}
}

func skillRows(cats []profile.SkillCategory) []Row {
	var rows []Row
	for _, c := range cats {
		skills := nonBlank(c.Skills)
		if c.CategoryName == "" && len(skills) == 0 {
			continue
		}
		rows = append(rows, Row{Label: c.CategoryName, Text: strings.Join(skills, ", ")})
	}
	return rows
}

// citation formats " - source (date)" with either part optional.
func citation(source, date string) string {
	var b strings.Builder
	if source != "" {
		b.WriteString(" - ")
		b.WriteString(source)
	}
	if date != "" {
		b.WriteString(" (")
		b.WriteString(date)
		b.WriteString(")")
	}
	return b.String()
}

func dateRange(start, end string) string {
	if end == "" {
		return start
	}
	return strings.TrimSpace(start + " - " + end)
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// nonBlank returns the entries of s that are not blank after trimming, in
// order. The result is never nil.
func nonBlank(s []string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
