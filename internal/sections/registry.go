// Package sections is the single source of truth for field templates: which
// document sections a professional field shows, in which order, and which
// skill categories it suggests.
package sections

import "strings"

// Field identifies a professional field. The set is closed; see Fields.
type Field string

const (
	Tech       Field = "tech"
	Sales      Field = "sales"
	Marketing  Field = "marketing"
	Finance    Field = "finance"
	Healthcare Field = "healthcare"
	Education  Field = "education"
	Design     Field = "design"
	Legal      Field = "legal"
	HR         Field = "hr"
	General    Field = "general"
)

// ID identifies a document section.
type ID string

const (
	Summary        ID = "summary"
	EducationList  ID = "education"
	Experience     ID = "experience"
	Projects       ID = "projects"
	Skills         ID = "skills"
	Certifications ID = "certifications"
	Publications   ID = "publications"
	Awards         ID = "awards"
	Volunteer      ID = "volunteer"
	Languages      ID = "languages"
	Coursework     ID = "coursework"
)

// Personal is the always-rendered header section. It is never a member of an
// Active list.
const Personal ID = "personal"

type template struct {
	label       string
	description string
	sections    []ID
	skills      []string
}

var templates = map[Field]template{
	Tech: {
		label:       "Technology",
		description: "Software, DevOps, Data Science, AI/ML",
		sections:    []ID{Summary, EducationList, Experience, Projects, Skills, Certifications, Coursework},
		skills:      []string{"Programming Languages", "Frameworks & Libraries", "Databases", "Cloud & DevOps", "Tools"},
	},
	Sales: {
		label:       "Sales",
		description: "B2B, B2C, Account Management, BDR",
		sections:    []ID{Summary, Experience, Skills, EducationList, Awards, Certifications},
		skills:      []string{"CRM Tools", "Sales Methodologies", "Negotiation", "Lead Generation", "Industry Knowledge"},
	},
	Marketing: {
		label:       "Marketing",
		description: "Digital, Content, SEO, Brand Strategy",
		sections:    []ID{Summary, Experience, Skills, Projects, EducationList, Certifications},
		skills:      []string{"Digital Marketing", "Analytics Tools", "Content Strategy", "Social Media", "SEO/SEM"},
	},
	Finance: {
		label:       "Finance",
		description: "Banking, Accounting, Investment, Audit",
		sections:    []ID{Summary, EducationList, Experience, Skills, Certifications, Awards},
		skills:      []string{"Financial Analysis", "Accounting Software", "Risk Management", "Compliance", "Excel & Modeling"},
	},
	Healthcare: {
		label:       "Healthcare",
		description: "Doctor, Nurse, Pharma, Research",
		sections:    []ID{Summary, EducationList, Experience, Publications, Skills, Certifications},
		skills:      []string{"Clinical Skills", "Patient Care", "Medical Software", "Research Methods", "Compliance"},
	},
	Education: {
		label:       "Education",
		description: "Teacher, Professor, Researcher",
		sections:    []ID{Summary, EducationList, Experience, Publications, Skills, Coursework, Awards},
		skills:      []string{"Teaching Methods", "Curriculum Design", "Ed-Tech Tools", "Assessment", "Research"},
	},
	Design: {
		label:       "Design",
		description: "UI/UX, Graphic, Product, Motion",
		sections:    []ID{Summary, Experience, Projects, Skills, EducationList, Awards},
		skills:      []string{"Design Tools", "UI/UX", "Typography", "Branding", "Motion Graphics"},
	},
	Legal: {
		label:       "Legal",
		description: "Lawyer, Paralegal, Compliance",
		sections:    []ID{Summary, EducationList, Experience, Skills, Publications, Awards, Certifications},
		skills:      []string{"Practice Areas", "Legal Research", "Case Management", "Compliance", "Bar Admissions"},
	},
	HR: {
		label:       "Human Resources",
		description: "Recruitment, L&D, People Ops",
		sections:    []ID{Summary, Experience, Skills, EducationList, Certifications, Awards},
		skills:      []string{"HRIS Systems", "Recruitment", "Employee Relations", "Compensation & Benefits", "Training"},
	},
	General: {
		label:       "General",
		description: "Any profession, all-purpose resume",
		sections:    []ID{Summary, EducationList, Experience, Skills, Projects, Certifications, Volunteer, Languages, Awards},
		skills:      []string{"Technical Skills", "Soft Skills", "Tools & Software", "Languages"},
	},
}

// fieldOrder is the display order of the field picker.
var fieldOrder = []Field{Tech, Sales, Marketing, Finance, Healthcare, Education, Design, Legal, HR, General}

// catalog is every section a document can carry, in default render order.
var catalog = []ID{Summary, EducationList, Experience, Projects, Skills, Certifications, Publications, Awards, Volunteer, Languages, Coursework}

var titles = map[ID]string{
	Personal:       "Personal Information",
	Summary:        "Summary",
	EducationList:  "Education",
	Experience:     "Experience",
	Projects:       "Projects",
	Skills:         "Skills",
	Certifications: "Certifications",
	Publications:   "Publications",
	Awards:         "Awards",
	Volunteer:      "Volunteer Experience",
	Languages:      "Languages",
	Coursework:     "Relevant Coursework",
}

// Fields returns all professional fields in picker order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// ParseField resolves s to a known field. Anything unrecognized, including
// the empty string, resolves to General.
func ParseField(s string) Field {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := templates[f]; ok {
		return f
	}
	return General
}

// Valid reports whether f is a member of the closed field set.
func (f Field) Valid() bool {
	_, ok := templates[f]
	return ok
}

func lookup(f Field) template {
	if t, ok := templates[f]; ok {
		return t
	}
	return templates[General]
}

// SectionsFor returns the default ordered sections for f.
func SectionsFor(f Field) []ID {
	src := lookup(f).sections
	out := make([]ID, len(src))
	copy(out, src)
	return out
}

// SkillSuggestionsFor returns the suggested skill-category names for f.
func SkillSuggestionsFor(f Field) []string {
	src := lookup(f).skills
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Label returns the display name of f.
func Label(f Field) string {
	return lookup(f).label
}

// Description returns the one-line blurb shown on the field picker.
func Description(f Field) string {
	return lookup(f).description
}

// Catalog returns every section that may be added to a document.
func Catalog() []ID {
	out := make([]ID, len(catalog))
	copy(out, catalog)
	return out
}

// Title returns the heading used for section id.
func Title(id ID) string {
	if t, ok := titles[id]; ok {
		return t
	}
	return string(id)
}

// ParseID resolves s to a catalog section.
func ParseID(s string) (ID, bool) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range catalog {
		if c == id {
			return id, true
		}
	}
	return "", false
}

// Anchored reports whether id is a list-of-entries section whose visibility is
// gated by an anchor attribute (company, institution, name, title or
// organization).
func (id ID) Anchored() bool {
	switch id {
	case Experience, EducationList, Projects, Publications, Awards, Volunteer:
		return true
	}
	return false
}
