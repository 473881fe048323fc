package sections

// Active is the user-adjustable, ordered list of sections shown for one
// editing session. Removing a section only hides it; profile data is left in
// place so re-adding restores it.
//
// The zero value is an empty list. Active is not safe for concurrent use.
type Active struct {
	ids []ID
}

// NewActive seeds an Active list from the template of f.
func NewActive(f Field) *Active {
	return &Active{ids: SectionsFor(f)}
}

// ActiveFrom builds an Active list from stored ids, dropping unknown entries,
// duplicates and the personal header.
func ActiveFrom(ids []ID) *Active {
	a := &Active{}
	for _, id := range ids {
		a.Add(id)
	}
	return a
}

// IDs returns a copy of the current order.
func (a *Active) IDs() []ID {
	out := make([]ID, len(a.ids))
	copy(out, a.ids)
	return out
}

// Contains reports whether id is currently shown.
func (a *Active) Contains(id ID) bool {
	for _, x := range a.ids {
		if x == id {
			return true
		}
	}
	return false
}

// Remove hides id. It reports whether anything changed; the personal header
// can never be removed.
func (a *Active) Remove(id ID) bool {
	for i, x := range a.ids {
		if x == id {
			next := make([]ID, 0, len(a.ids)-1)
			next = append(next, a.ids[:i]...)
			a.ids = append(next, a.ids[i+1:]...)
			return true
		}
	}
	return false
}

// Add appends id to the end of the list if it is a catalog section that is
// not already shown.
func (a *Active) Add(id ID) bool {
	if _, ok := ParseID(string(id)); !ok || a.Contains(id) {
		return false
	}
	next := make([]ID, len(a.ids), len(a.ids)+1)
	copy(next, a.ids)
	a.ids = append(next, id)
	return true
}

// Missing returns the catalog sections that can be re-added, in catalog order.
func (a *Active) Missing() []ID {
	var out []ID
	for _, id := range catalog {
		if !a.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}
