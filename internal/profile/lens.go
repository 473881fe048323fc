package profile

import "github.com/nomoreats/builder/internal/sections"

// Scalar names a top-level string attribute of Profile.
type Scalar int

const (
	ScalarName Scalar = iota
	ScalarSummary
)

var scalarNames = map[string]Scalar{
	"name":                 ScalarName,
	"professional_summary": ScalarSummary,
	"summary":              ScalarSummary,
}

// ScalarByName resolves a wire name to a Scalar.
func ScalarByName(name string) (Scalar, bool) {
	s, ok := scalarNames[name]
	return s, ok
}

func contactSlot(c *Contact, k sections.ContactKey) *string {
	switch k {
	case sections.ContactEmail:
		return &c.Email
	case sections.ContactPhone:
		return &c.Phone
	case sections.ContactLocation:
		return &c.Location
	case sections.ContactLinkedIn:
		return &c.LinkedIn
	case sections.ContactGitHub:
		return &c.GitHub
	case sections.ContactPortfolio:
		return &c.Portfolio
	case sections.ContactWebsite:
		return &c.Website
	case sections.ContactTwitter:
		return &c.Twitter
	}
	return nil
}

// Field addresses one string attribute of a list element of type T.
type Field[T any] struct {
	name string
	slot func(*T) *string
}

func (f Field[T]) Name() string { return f.name }

// Get reads the attribute from item.
func (f Field[T]) Get(item T) string { return *f.slot(&item) }

// Nested addresses a string list held inside a list element of type T, such
// as the bullets of an experience entry or the skills of a category.
type Nested[T any] struct {
	name string
	slot func(*T) *[]string
}

func (n Nested[T]) Name() string { return n.name }

// Get returns the nested list of item. The result must not be modified.
func (n Nested[T]) Get(item T) []string { return *n.slot(&item) }

// List addresses one list-of-objects attribute of Profile.
type List[T any] struct {
	name   string
	slot   func(*Profile) *[]T
	empty  func() T
	fields []Field[T]
	nested []Nested[T]
}

func (l List[T]) Name() string { return l.name }

// Get returns the list held by p. The result must not be modified.
func (l List[T]) Get(p Profile) []T { return *l.slot(&p) }

// Len returns the number of elements in the list held by p.
func (l List[T]) Len(p Profile) int { return len(l.Get(p)) }

// New returns a fresh placeholder element.
func (l List[T]) New() T { return l.empty() }

// FieldByName resolves a wire attribute name for this list's element type.
func (l List[T]) FieldByName(name string) (Field[T], bool) {
	for _, f := range l.fields {
		if f.name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// NestedByName resolves a wire nested-list name for this list's element type.
func (l List[T]) NestedByName(name string) (Nested[T], bool) {
	for _, n := range l.nested {
		if n.name == name {
			return n, true
		}
	}
	return Nested[T]{}, false
}

// Strings addresses a plain string-list attribute of Profile.
type Strings struct {
	name string
	slot func(*Profile) *[]string
}

func (s Strings) Name() string { return s.name }

// Get returns the list held by p. The result must not be modified.
func (s Strings) Get(p Profile) []string { return *s.slot(&p) }

func (s Strings) Len(p Profile) int { return len(s.Get(p)) }

func field[T any](name string, slot func(*T) *string) Field[T] {
	return Field[T]{name: name, slot: slot}
}

func nested[T any](name string, slot func(*T) *[]string) Nested[T] {
	return Nested[T]{name: name, slot: slot}
}

// Element attributes.
var (
	ExperienceCompany   = field("company", func(e *Experience) *string { return &e.Company })
	ExperienceRole      = field("role", func(e *Experience) *string { return &e.Role })
	ExperienceStartDate = field("start_date", func(e *Experience) *string { return &e.StartDate })
	ExperienceEndDate   = field("end_date", func(e *Experience) *string { return &e.EndDate })
	ExperienceLocation  = field("location", func(e *Experience) *string { return &e.Location })
	ExperienceBullets   = nested("description", func(e *Experience) *[]string { return &e.Description })

	EducationInstitution    = field("institution", func(e *Education) *string { return &e.Institution })
	EducationLocation       = field("location", func(e *Education) *string { return &e.Location })
	EducationDegree         = field("degree", func(e *Education) *string { return &e.Degree })
	EducationGPA            = field("gpa", func(e *Education) *string { return &e.GPA })
	EducationGraduationDate = field("graduation_date", func(e *Education) *string { return &e.GraduationDate })

	ProjectName         = field("name", func(p *Project) *string { return &p.Name })
	ProjectDemoLink     = field("demo_link", func(p *Project) *string { return &p.DemoLink })
	ProjectTechnologies = field("technologies", func(p *Project) *string { return &p.Technologies })
	ProjectBullets      = nested("description", func(p *Project) *[]string { return &p.Description })

	SkillCategoryName = field("category_name", func(c *SkillCategory) *string { return &c.CategoryName })
	CategorySkills    = nested("skills", func(c *SkillCategory) *[]string { return &c.Skills })

	PublicationTitle     = field("title", func(p *Publication) *string { return &p.Title })
	PublicationPublisher = field("publisher", func(p *Publication) *string { return &p.Publisher })
	PublicationDate      = field("date", func(p *Publication) *string { return &p.Date })
	PublicationSummary   = field("summary", func(p *Publication) *string { return &p.Summary })

	AwardTitle   = field("title", func(a *Award) *string { return &a.Title })
	AwardAwarder = field("awarder", func(a *Award) *string { return &a.Awarder })
	AwardDate    = field("date", func(a *Award) *string { return &a.Date })
	AwardSummary = field("summary", func(a *Award) *string { return &a.Summary })

	VolunteerOrganization = field("organization", func(v *Volunteer) *string { return &v.Organization })
	VolunteerRole         = field("role", func(v *Volunteer) *string { return &v.Role })
	VolunteerStartDate    = field("start_date", func(v *Volunteer) *string { return &v.StartDate })
	VolunteerEndDate      = field("end_date", func(v *Volunteer) *string { return &v.EndDate })
	VolunteerBullets      = nested("description", func(v *Volunteer) *[]string { return &v.Description })
)

// Profile lists.
var (
	ExperienceList = List[Experience]{
		name:   "experience",
		slot:   func(p *Profile) *[]Experience { return &p.Experience },
		empty:  NewExperience,
		fields: []Field[Experience]{ExperienceCompany, ExperienceRole, ExperienceStartDate, ExperienceEndDate, ExperienceLocation},
		nested: []Nested[Experience]{ExperienceBullets},
	}
	EducationList = List[Education]{
		name:   "education",
		slot:   func(p *Profile) *[]Education { return &p.Education },
		empty:  NewEducation,
		fields: []Field[Education]{EducationInstitution, EducationLocation, EducationDegree, EducationGPA, EducationGraduationDate},
	}
	ProjectList = List[Project]{
		name:   "projects",
		slot:   func(p *Profile) *[]Project { return &p.Projects },
		empty:  NewProject,
		fields: []Field[Project]{ProjectName, ProjectDemoLink, ProjectTechnologies},
		nested: []Nested[Project]{ProjectBullets},
	}
	SkillCategories = List[SkillCategory]{
		name:   "skills",
		slot:   func(p *Profile) *[]SkillCategory { return &p.Skills },
		empty:  func() SkillCategory { return NewSkillCategory("") },
		fields: []Field[SkillCategory]{SkillCategoryName},
		nested: []Nested[SkillCategory]{CategorySkills},
	}
	PublicationList = List[Publication]{
		name:   "publications",
		slot:   func(p *Profile) *[]Publication { return &p.Publications },
		empty:  NewPublication,
		fields: []Field[Publication]{PublicationTitle, PublicationPublisher, PublicationDate, PublicationSummary},
	}
	AwardList = List[Award]{
		name:   "awards",
		slot:   func(p *Profile) *[]Award { return &p.Awards },
		empty:  NewAward,
		fields: []Field[Award]{AwardTitle, AwardAwarder, AwardDate, AwardSummary},
	}
	VolunteerList = List[Volunteer]{
		name:   "volunteer",
		slot:   func(p *Profile) *[]Volunteer { return &p.Volunteer },
		empty:  NewVolunteer,
		fields: []Field[Volunteer]{VolunteerOrganization, VolunteerRole, VolunteerStartDate, VolunteerEndDate},
		nested: []Nested[Volunteer]{VolunteerBullets},
	}

	Certifications  = Strings{name: "certifications", slot: func(p *Profile) *[]string { return &p.Certifications }}
	Languages       = Strings{name: "languages", slot: func(p *Profile) *[]string { return &p.Languages }}
	MajorCoursework = Strings{name: "major_coursework", slot: func(p *Profile) *[]string { return &p.Coursework.Major }}
	MinorCoursework = Strings{name: "minor_coursework", slot: func(p *Profile) *[]string { return &p.Coursework.Minor }}
)

var plainLists = []Strings{Certifications, Languages, MajorCoursework, MinorCoursework}

// StringsByName resolves a wire name to a plain string list.
func StringsByName(name string) (Strings, bool) {
	for _, s := range plainLists {
		if s.name == name {
			return s, true
		}
	}
	return Strings{}, false
}
