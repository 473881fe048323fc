// Package quota decides which professional fields a user may open and
// whether tailoring is available, from the usage figures reported by the
// backend.
package quota

import (
	"slices"

	"github.com/nomoreats/builder/internal/sections"
)

// DefaultFieldLimit applies when the backend reports no limit.
const DefaultFieldLimit = 2

// IsLocked reports whether field f may not be opened. A field already in used
// is never locked; any other field is locked once len(used) reaches limit.
func IsLocked(f sections.Field, used []sections.Field, limit int) bool {
	if slices.Contains(used, f) {
		return false
	}
	return len(used) >= limit
}

// Limits is a user's usage snapshot.
type Limits struct {
	// TailorCredits is nil until the balance is known.
	TailorCredits *int
	UsedFields    []sections.Field
	FieldLimit    int
}

// NewLimits builds a snapshot from raw backend values. Used fields are
// resolved against the closed set and de-duplicated; a non-positive limit
// becomes defaultLimit (DefaultFieldLimit when defaultLimit is not positive).
func NewLimits(credits int, used []string, limit, defaultLimit int) Limits {
	if defaultLimit <= 0 {
		defaultLimit = DefaultFieldLimit
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	fields := make([]sections.Field, 0, len(used))
	for _, u := range used {
		f := sections.ParseField(u)
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return Limits{TailorCredits: &credits, UsedFields: fields, FieldLimit: limit}
}

// Unavailable is the snapshot used when the limits fetch fails: no credits,
// nothing used, default field limit.
func Unavailable(defaultLimit int) Limits {
	return NewLimits(0, nil, 0, defaultLimit)
}

// Locked reports whether f is locked for this snapshot.
func (l Limits) Locked(f sections.Field) bool {
	return IsLocked(sections.ParseField(string(f)), l.UsedFields, l.FieldLimit)
}

// CreditsKnown reports whether the credit balance has been loaded.
func (l Limits) CreditsKnown() bool { return l.TailorCredits != nil }

// Credits returns the known balance, or 0 while unknown.
func (l Limits) Credits() int {
	if l.TailorCredits == nil {
		return 0
	}
	return *l.TailorCredits
}

// CanTailor reports whether the tailoring action is enabled: the balance is
// known and positive.
func (l Limits) CanTailor() bool {
	return l.TailorCredits != nil && *l.TailorCredits > 0
}

// WithCredits returns a copy of l holding the balance reported by the
// service after a tailoring call.
func (l Limits) WithCredits(n int) Limits {
	l.TailorCredits = &n
	return l
}

// FieldStatus is one entry of the field picker.
type FieldStatus struct {
	Field       sections.Field `json:"field"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Used        bool           `json:"used"`
	Locked      bool           `json:"locked"`
}

// Picker returns every field in picker order with its lock state.
func (l Limits) Picker() []FieldStatus {
	fields := sections.Fields()
	out := make([]FieldStatus, len(fields))
	for i, f := range fields {
		out[i] = FieldStatus{
			Field:       f,
			Label:       sections.Label(f),
			Description: sections.Description(f),
			Used:        slices.Contains(l.UsedFields, f),
			Locked:      l.Locked(f),
		}
	}
	return out
}
