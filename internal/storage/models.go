package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Export kinds.
const (
	KindResume   = "resume"
	KindTailored = "tailored"
)

// Export records one generated document.
type Export struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Field   string `json:"field"`
	Kind    string `json:"kind"` // KindResume or KindTailored
	PDFURL  string `json:"pdf_url"`
	// RemainingCredits is the balance reported with a tailored export; nil for
	// plain exports.
	RemainingCredits *int      `json:"remaining_credits,omitempty"`
	PageCount        int       `json:"page_count"` // 0 until the document has been inspected
	CreatedAt        time.Time `json:"created_at"`
}

// EditorState is the presentation state of one editing session, keyed by
// owner and field. It never holds profile content.
type EditorState struct {
	OwnerID        string
	Field          string
	ActiveSections []string
	Collapsed      []string
	ZoomLevel      float64 // 0 means fit to width
	UpdatedAt      time.Time
}
