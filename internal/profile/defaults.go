package profile

import (
	"slices"

	"github.com/nomoreats/builder/internal/sections"
)

// Row factories used when the editing surface appends a new entry.

func NewExperience() Experience   { return Experience{Description: []string{""}} }
func NewEducation() Education     { return Education{} }
func NewProject() Project         { return Project{Description: []string{""}} }
func NewPublication() Publication { return Publication{} }
func NewAward() Award             { return Award{} }
func NewVolunteer() Volunteer     { return Volunteer{Description: []string{""}} }

// NewSkillCategory returns a category with one empty skill slot.
func NewSkillCategory(name string) SkillCategory {
	return SkillCategory{CategoryName: name, Skills: []string{""}}
}

// New returns a blank profile for field f. Every list carries one empty
// placeholder row, and skill categories are seeded from the field's
// suggestions.
func New(f sections.Field) Profile {
	f = sections.ParseField(string(f))
	suggestions := sections.SkillSuggestionsFor(f)
	skills := make([]SkillCategory, len(suggestions))
	for i, s := range suggestions {
		skills[i] = NewSkillCategory(s)
	}
	return Profile{
		ProfessionalField: f,
		Education:         []Education{NewEducation()},
		Experience:        []Experience{NewExperience()},
		Projects:          []Project{NewProject()},
		Skills:            skills,
		Certifications:    []string{""},
		Publications:      []Publication{NewPublication()},
		Awards:            []Award{NewAward()},
		Volunteer:         []Volunteer{NewVolunteer()},
		Languages:         []string{""},
		Coursework: Coursework{
			Major: []string{""},
			Minor: []string{""},
		},
	}
}

// Normalize restores the placeholder invariant on a profile that came from
// outside (a stored document, a file): the field is resolved against the
// closed set, every empty list gains one placeholder row, and every entry
// whose bullet or skill list is empty gains one empty slot. Lists that need
// no change are shared, not copied.
func Normalize(p Profile) Profile {
	p.ProfessionalField = sections.ParseField(string(p.ProfessionalField))
	if len(p.Education) == 0 {
		p.Education = []Education{NewEducation()}
	}
	if len(p.Experience) == 0 {
		p.Experience = []Experience{NewExperience()}
	}
	if len(p.Projects) == 0 {
		p.Projects = []Project{NewProject()}
	}
	if len(p.Skills) == 0 {
		p.Skills = New(p.ProfessionalField).Skills
	}
	if len(p.Certifications) == 0 {
		p.Certifications = []string{""}
	}
	if len(p.Publications) == 0 {
		p.Publications = []Publication{NewPublication()}
	}
	if len(p.Awards) == 0 {
		p.Awards = []Award{NewAward()}
	}
	if len(p.Volunteer) == 0 {
		p.Volunteer = []Volunteer{NewVolunteer()}
	}
	if len(p.Languages) == 0 {
		p.Languages = []string{""}
	}
	if len(p.Coursework.Major) == 0 {
		p.Coursework.Major = []string{""}
	}
	if len(p.Coursework.Minor) == 0 {
		p.Coursework.Minor = []string{""}
	}
	p.Experience = fillNested(p.Experience, func(e *Experience) *[]string { return &e.Description })
	p.Projects = fillNested(p.Projects, func(e *Project) *[]string { return &e.Description })
	p.Volunteer = fillNested(p.Volunteer, func(e *Volunteer) *[]string { return &e.Description })
	p.Skills = fillNested(p.Skills, func(c *SkillCategory) *[]string { return &c.Skills })
	return p
}

// fillNested gives every item whose nested list is empty a single empty
// slot. The slice is cloned on the first change.
func fillNested[T any](items []T, slot func(*T) *[]string) []T {
	out := items
	cloned := false
	for i := range out {
		if len(*slot(&out[i])) > 0 {
			continue
		}
		if !cloned {
			out = slices.Clone(items)
			cloned = true
		}
		*slot(&out[i]) = []string{""}
	}
	return out
}
