package sections

import (
	"reflect"
	"testing"
)

func TestParseField_Fallback(t *testing.T) {
	tests := []struct {
		in   string
		want Field
	}{
		{"tech", Tech},
		{" Sales ", Sales},
		{"HR", HR},
		{"", General},
		{"astronaut", General},
		{"undefined", General},
	}
	for _, tt := range tests {
		if got := ParseField(tt.in); got != tt.want {
			t.Errorf("ParseField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFields_Closed(t *testing.T) {
	fields := Fields()
	if len(fields) != 10 {
		t.Fatalf("len(Fields()) = %d, want 10", len(fields))
	}
	for _, f := range fields {
		if !f.Valid() {
			t.Errorf("%q not valid", f)
		}
		if len(SectionsFor(f)) == 0 {
			t.Errorf("SectionsFor(%q) empty", f)
		}
		if len(SkillSuggestionsFor(f)) == 0 {
			t.Errorf("SkillSuggestionsFor(%q) empty", f)
		}
	}
	if Field("astronaut").Valid() {
		t.Error("unknown field reported valid")
	}
}

func TestSectionsFor_Tech(t *testing.T) {
	want := []ID{Summary, EducationList, Experience, Projects, Skills, Certifications, Coursework}
	if got := SectionsFor(Tech); !reflect.DeepEqual(got, want) {
		t.Errorf("SectionsFor(tech) = %v, want %v", got, want)
	}
}

func TestSectionsFor_UnknownUsesGeneral(t *testing.T) {
	if got, want := SectionsFor(Field("nope")), SectionsFor(General); !reflect.DeepEqual(got, want) {
		t.Errorf("SectionsFor(nope) = %v, want %v", got, want)
	}
	if got := Label(Field("nope")); got != "General" {
		t.Errorf("Label(nope) = %q, want General", got)
	}
}

func TestSectionsFor_ReturnsCopy(t *testing.T) {
	got := SectionsFor(Tech)
	got[0] = Awards
	if SectionsFor(Tech)[0] != Summary {
		t.Error("SectionsFor leaked its backing array")
	}
}

func TestLabels(t *testing.T) {
	if got := Label(HR); got != "Human Resources" {
		t.Errorf("Label(hr) = %q", got)
	}
	if got := Label(Tech); got != "Technology" {
		t.Errorf("Label(tech) = %q", got)
	}
}

func TestContactFieldsFor(t *testing.T) {
	tests := []struct {
		field Field
		want  []ContactKey
	}{
		{Tech, []ContactKey{ContactEmail, ContactPhone, ContactLocation, ContactLinkedIn, ContactGitHub, ContactPortfolio}},
		{Marketing, []ContactKey{ContactEmail, ContactPhone, ContactLocation, ContactLinkedIn, ContactTwitter}},
		{Design, []ContactKey{ContactEmail, ContactPhone, ContactLocation, ContactLinkedIn, ContactPortfolio}},
		{Sales, []ContactKey{ContactEmail, ContactPhone, ContactLocation, ContactLinkedIn, ContactWebsite}},
		{General, []ContactKey{ContactEmail, ContactPhone, ContactLocation, ContactLinkedIn, ContactGitHub, ContactPortfolio, ContactWebsite}},
	}
	for _, tt := range tests {
		if got := ContactFieldsFor(tt.field); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ContactFieldsFor(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}
}
