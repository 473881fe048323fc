package profile

import "github.com/nomoreats/builder/internal/sections"

// Profile is the canonical content of one resume for one professional field.
// Values are treated as immutable: every change goes through the operations
// in mutate.go, which copy the containers they touch and leave the receiver
// untouched. Two Profiles may share unchanged slices.
type Profile struct {
	ID                string          `json:"_id,omitempty" yaml:"_id,omitempty"`
	OwnerID           string          `json:"clerk_user_id" yaml:"clerk_user_id"`
	Name              string          `json:"name" yaml:"name"`
	ProfessionalField sections.Field  `json:"professional_field" yaml:"professional_field"`
	Summary           string          `json:"professional_summary" yaml:"professional_summary"`
	Contact           Contact         `json:"contact" yaml:"contact"`
	Education         []Education     `json:"education" yaml:"education"`
	Experience        []Experience    `json:"experience" yaml:"experience"`
	Projects          []Project       `json:"projects" yaml:"projects"`
	Skills            []SkillCategory `json:"skills" yaml:"skills"`
	Certifications    []string        `json:"certifications" yaml:"certifications"`
	Publications      []Publication   `json:"publications" yaml:"publications"`
	Awards            []Award         `json:"awards" yaml:"awards"`
	Volunteer         []Volunteer     `json:"volunteer" yaml:"volunteer"`
	Languages         []string        `json:"languages" yaml:"languages"`
	Coursework        Coursework      `json:"coursework" yaml:"coursework"`
}

// Contact is a bag of optional contact strings.
type Contact struct {
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone" yaml:"phone"`
	Location  string `json:"location" yaml:"location"`
	LinkedIn  string `json:"linkedin" yaml:"linkedin"`
	GitHub    string `json:"github" yaml:"github"`
	Portfolio string `json:"portfolio" yaml:"portfolio"`
	Website   string `json:"website" yaml:"website"`
	Twitter   string `json:"twitter" yaml:"twitter"`
}

type Experience struct {
	Company     string   `json:"company" yaml:"company"`
	Role        string   `json:"role" yaml:"role"`
	StartDate   string   `json:"start_date" yaml:"start_date"`
	EndDate     string   `json:"end_date" yaml:"end_date"`
	Location    string   `json:"location" yaml:"location"`
	Description []string `json:"description" yaml:"description"`
}

type Education struct {
	Institution    string `json:"institution" yaml:"institution"`
	Location       string `json:"location" yaml:"location"`
	Degree         string `json:"degree" yaml:"degree"`
	GPA            string `json:"gpa" yaml:"gpa"`
	GraduationDate string `json:"graduation_date" yaml:"graduation_date"`
}

type Project struct {
	Name         string   `json:"name" yaml:"name"`
	DemoLink     string   `json:"demo_link" yaml:"demo_link"`
	Technologies string   `json:"technologies" yaml:"technologies"`
	Description  []string `json:"description" yaml:"description"`
}

// SkillCategory is a named group of skills. Category order is display order.
type SkillCategory struct {
	CategoryName string   `json:"category_name" yaml:"category_name"`
	Skills       []string `json:"skills" yaml:"skills"`
}

type Publication struct {
	Title     string `json:"title" yaml:"title"`
	Publisher string `json:"publisher" yaml:"publisher"`
	Date      string `json:"date" yaml:"date"`
	Summary   string `json:"summary" yaml:"summary"`
}

type Award struct {
	Title   string `json:"title" yaml:"title"`
	Awarder string `json:"awarder" yaml:"awarder"`
	Date    string `json:"date" yaml:"date"`
	Summary string `json:"summary" yaml:"summary"`
}

type Volunteer struct {
	Organization string   `json:"organization" yaml:"organization"`
	Role         string   `json:"role" yaml:"role"`
	StartDate    string   `json:"start_date" yaml:"start_date"`
	EndDate      string   `json:"end_date" yaml:"end_date"`
	Description  []string `json:"description" yaml:"description"`
}

type Coursework struct {
	Major []string `json:"major_coursework" yaml:"major_coursework"`
	Minor []string `json:"minor_coursework" yaml:"minor_coursework"`
}
