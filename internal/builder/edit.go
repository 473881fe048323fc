package builder

import (
	"fmt"

	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/sections"
)

// Op is the kind of an Edit.
type Op string

const (
	OpSet    Op = "set"
	OpAppend Op = "append"
	OpRemove Op = "remove"
)

// Edit is one change to the profile as it arrives from an editing surface.
// Target names a scalar ("name", "professional_summary"), "contact", an
// object list ("experience", "skills", ...) or a plain list ("languages",
// "major_coursework", ...). Field names the attribute or contact key, Nested
// the nested string list ("description" or "skills").
type Edit struct {
	Op          Op     `json:"op"`
	Target      string `json:"target"`
	Index       *int   `json:"index,omitempty"`
	Field       string `json:"field,omitempty"`
	Nested      string `json:"nested,omitempty"`
	NestedIndex *int   `json:"nested_index,omitempty"`
	Value       string `json:"value,omitempty"`
}

type listEditor func(profile.Profile, Edit) (profile.Profile, error)

var listEditors = map[string]listEditor{
	profile.ExperienceList.Name():  func(p profile.Profile, e Edit) (profile.Profile, error) { return applyList(p, profile.ExperienceList, e) },
	profile.EducationList.Name():   func(p profile.Profile, e Edit) (profile.Profile, error) { return applyList(p, profile.EducationList, e) },
	profile.ProjectList.Name():     func(p profile.Profile, e Edit) (profile.Profile, error) { return applyList(p, profile.ProjectList, e) },
	profile.SkillCategories.Name(): func(p profile.Profile, e Edit) (profile.Profile, error) { return applyList(p, profile.SkillCategories, e) },
	profile.PublicationList.Name(): func(p profile.Profile, e Edit) (profile.Profile, error) { return applyList(p, profile.PublicationList, e) },
	profile.AwardList.Name():       func(p profile.Profile, e Edit) (profile.Profile, error) { return applyList(p, profile.AwardList, e) },
	profile.VolunteerList.Name():   func(p profile.Profile, e Edit) (profile.Profile, error) { return applyList(p, profile.VolunteerList, e) },
}

// Apply decodes e and applies it to p. Indices are checked here, so an edit
// naming a row that does not exist is rejected with ErrInvalidEdit rather than
// silently ignored. Removing the only row of any list is a no-op: every list
// keeps one editable row.
func Apply(p profile.Profile, e Edit) (profile.Profile, error) {
	if k, ok := profile.ScalarByName(e.Target); ok {
		if e.Op != OpSet {
			return p, invalid(e, "scalars only support set")
		}
		return profile.SetScalar(p, k, e.Value), nil
	}

	if e.Target == "contact" {
		if e.Op != OpSet {
			return p, invalid(e, "contact only supports set")
		}
		k, ok := sections.ParseContactKey(e.Field)
		if !ok {
			return p, invalid(e, "unknown contact key %q", e.Field)
		}
		return profile.SetContact(p, k, e.Value), nil
	}

	if apply, ok := listEditors[e.Target]; ok {
		return apply(p, e)
	}

	if s, ok := profile.StringsByName(e.Target); ok {
		return applyStrings(p, s, e)
	}

	return p, invalid(e, "unknown target %q", e.Target)
}

func applyList[T any](p profile.Profile, l profile.List[T], e Edit) (profile.Profile, error) {
	if e.Nested != "" {
		return applyNested(p, l, e)
	}

	switch e.Op {
	case OpAppend:
		return profile.AppendListItem(p, l, nil), nil
	case OpRemove:
		i, err := index(e, e.Index, l.Len(p))
		if err != nil {
			return p, err
		}
		if l.Len(p) <= 1 {
			return p, nil
		}
		return profile.RemoveListItem(p, l, i), nil
	case OpSet:
		i, err := index(e, e.Index, l.Len(p))
		if err != nil {
			return p, err
		}
		f, ok := l.FieldByName(e.Field)
		if !ok {
			return p, invalid(e, "%s has no attribute %q", l.Name(), e.Field)
		}
		return profile.SetListItemField(p, l, i, f, e.Value), nil
	}
	return p, invalid(e, "unknown op %q", e.Op)
}

func applyNested[T any](p profile.Profile, l profile.List[T], e Edit) (profile.Profile, error) {
	n, ok := l.NestedByName(e.Nested)
	if !ok {
		return p, invalid(e, "%s has no nested list %q", l.Name(), e.Nested)
	}
	i, err := index(e, e.Index, l.Len(p))
	if err != nil {
		return p, err
	}
	inner := len(n.Get(l.Get(p)[i]))

	switch e.Op {
	case OpAppend:
		return profile.AppendNestedListItem(p, l, i, n), nil
	case OpRemove:
		j, err := index(e, e.NestedIndex, inner)
		if err != nil {
			return p, err
		}
		if inner <= 1 {
			return p, nil
		}
		return profile.RemoveNestedListItem(p, l, i, n, j), nil
	case OpSet:
		j, err := index(e, e.NestedIndex, inner)
		if err != nil {
			return p, err
		}
		return profile.SetNestedListItem(p, l, i, n, j, e.Value), nil
	}
	return p, invalid(e, "unknown op %q", e.Op)
}

func applyStrings(p profile.Profile, s profile.Strings, e Edit) (profile.Profile, error) {
	switch e.Op {
	case OpAppend:
		return profile.AppendPlainListItem(p, s), nil
	case OpRemove:
		i, err := index(e, e.Index, s.Len(p))
		if err != nil {
			return p, err
		}
		if s.Len(p) <= 1 {
			return p, nil
		}
		return profile.RemovePlainListItem(p, s, i), nil
	case OpSet:
		i, err := index(e, e.Index, s.Len(p))
		if err != nil {
			return p, err
		}
		return profile.SetPlainListItem(p, s, i, e.Value), nil
	}
	return p, invalid(e, "unknown op %q", e.Op)
}

func index(e Edit, i *int, n int) (int, error) {
	if i == nil {
		return 0, invalid(e, "index required")
	}
	if *i < 0 || *i >= n {
		return 0, invalid(e, "index %d out of range [0,%d)", *i, n)
	}
	return *i, nil
}

func invalid(e Edit, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s: %s", ErrInvalidEdit, e.Op, e.Target, fmt.Sprintf(format, args...))
}
