package profile

import "github.com/nomoreats/builder/internal/sections"

// The operations below never modify their input. Each copies exactly the
// containers on the path to the changed slot (the Profile header, one list,
// one element, at most one nested list) and shares everything else with the
// input. An index outside the current bounds leaves the profile unchanged.

// SetScalar replaces a top-level string attribute.
func SetScalar(p Profile, k Scalar, v string) Profile {
	switch k {
	case ScalarName:
		p.Name = v
	case ScalarSummary:
		p.Summary = v
	}
	return p
}

// SetContact replaces one contact attribute. Unknown keys are ignored.
func SetContact(p Profile, k sections.ContactKey, v string) Profile {
	if slot := contactSlot(&p.Contact, k); slot != nil {
		*slot = v
	}
	return p
}

// SetListItemField replaces attribute f of element i of list l.
func SetListItemField[T any](p Profile, l List[T], i int, f Field[T], v string) Profile {
	items := l.Get(p)
	if !inBounds(items, i) {
		return p
	}
	item := items[i]
	*f.slot(&item) = v
	*l.slot(&p) = replaceAt(items, i, item)
	return p
}

// AppendListItem appends the element produced by factory, or the list's
// placeholder element when factory is nil.
func AppendListItem[T any](p Profile, l List[T], factory func() T) Profile {
	if factory == nil {
		factory = l.empty
	}
	*l.slot(&p) = appendCopy(l.Get(p), factory())
	return p
}

// RemoveListItem removes element i of list l. It will happily empty the list;
// keeping at least one editable row is the caller's policy.
func RemoveListItem[T any](p Profile, l List[T], i int) Profile {
	items := l.Get(p)
	if !inBounds(items, i) {
		return p
	}
	*l.slot(&p) = removeAt(items, i)
	return p
}

// SetNestedListItem replaces entry j of nested list n inside element i of l.
func SetNestedListItem[T any](p Profile, l List[T], i int, n Nested[T], j int, v string) Profile {
	return updateNested(p, l, i, n, func(inner []string) ([]string, bool) {
		if !inBounds(inner, j) {
			return nil, false
		}
		return replaceAt(inner, j, v), true
	})
}

// AppendNestedListItem appends an empty entry to nested list n of element i.
func AppendNestedListItem[T any](p Profile, l List[T], i int, n Nested[T]) Profile {
	return updateNested(p, l, i, n, func(inner []string) ([]string, bool) {
		return appendCopy(inner, ""), true
	})
}

// RemoveNestedListItem removes entry j of nested list n of element i.
func RemoveNestedListItem[T any](p Profile, l List[T], i int, n Nested[T], j int) Profile {
	return updateNested(p, l, i, n, func(inner []string) ([]string, bool) {
		if !inBounds(inner, j) {
			return nil, false
		}
		return removeAt(inner, j), true
	})
}

func updateNested[T any](p Profile, l List[T], i int, n Nested[T], fn func([]string) ([]string, bool)) Profile {
	items := l.Get(p)
	if !inBounds(items, i) {
		return p
	}
	item := items[i]
	next, ok := fn(n.Get(item))
	if !ok {
		return p
	}
	*n.slot(&item) = next
	*l.slot(&p) = replaceAt(items, i, item)
	return p
}

// SetPlainListItem replaces entry i of plain string list s.
func SetPlainListItem(p Profile, s Strings, i int, v string) Profile {
	items := s.Get(p)
	if !inBounds(items, i) {
		return p
	}
	*s.slot(&p) = replaceAt(items, i, v)
	return p
}

// AppendPlainListItem appends an empty entry to s.
func AppendPlainListItem(p Profile, s Strings) Profile {
	*s.slot(&p) = appendCopy(s.Get(p), "")
	return p
}

// RemovePlainListItem removes entry i of s.
func RemovePlainListItem(p Profile, s Strings, i int) Profile {
	items := s.Get(p)
	if !inBounds(items, i) {
		return p
	}
	*s.slot(&p) = removeAt(items, i)
	return p
}

// SetSkillCategoryName renames category cat.
func SetSkillCategoryName(p Profile, cat int, v string) Profile {
	return SetListItemField(p, SkillCategories, cat, SkillCategoryName, v)
}

// SetSkill replaces skill idx of category cat.
func SetSkill(p Profile, cat, idx int, v string) Profile {
	return SetNestedListItem(p, SkillCategories, cat, CategorySkills, idx, v)
}

// AppendSkill adds an empty skill slot to category cat.
func AppendSkill(p Profile, cat int) Profile {
	return AppendNestedListItem(p, SkillCategories, cat, CategorySkills)
}

// RemoveSkill removes skill idx of category cat.
func RemoveSkill(p Profile, cat, idx int) Profile {
	return RemoveNestedListItem(p, SkillCategories, cat, CategorySkills, idx)
}

// AppendSkillCategory adds an unnamed category with one empty skill slot.
func AppendSkillCategory(p Profile) Profile {
	return AppendListItem(p, SkillCategories, nil)
}

func inBounds[T any](s []T, i int) bool {
	return i >= 0 && i < len(s)
}

func replaceAt[T any](s []T, i int, v T) []T {
	out := make([]T, len(s))
	copy(out, s)
	out[i] = v
	return out
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
