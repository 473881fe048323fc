// Package builder is the editing surface: it owns the canonical profile of
// one editing session and routes every change through the profile mutation
// operations. Presentation state (active and collapsed sections, zoom) lives
// in a separate store that the renderer only reads.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nomoreats/builder/internal/backend"
	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/quota"
	"github.com/nomoreats/builder/internal/render"
	"github.com/nomoreats/builder/internal/sections"
	"github.com/nomoreats/builder/internal/storage"
)

// Backend is the profile and generation service. Implemented by
// backend.Client.
type Backend interface {
	profile.Source
	ListProfiles(ctx context.Context, ownerID string) ([]profile.Profile, error)
	GetLimits(ctx context.Context, ownerID string) (backend.Limits, error)
	GenerateResume(ctx context.Context, p profile.Profile) (backend.Generated, error)
	GenerateTailored(ctx context.Context, ownerID, jobDescription string) (backend.Tailored, error)
}

// StateStore keeps editor presentation state and export history. Implemented
// by storage.Store.
type StateStore interface {
	GetEditorState(ownerID, field string) (storage.EditorState, error)
	SaveEditorState(st storage.EditorState) error
	SaveExport(e storage.Export) error
	SetExportPages(id string, pages int) error
}

// Identity is the signed-in user a session edits for.
type Identity struct {
	OwnerID string `json:"owner_id"`
	Email   string `json:"email,omitempty"`
}

// presentation is the editor-only store. Nothing here is part of the profile.
type presentation struct {
	active     *sections.Active
	collapsed  map[sections.ID]bool
	viewport   render.Viewport
	tailorMode bool
}

// Result is the outcome of a generate or tailor call.
type Result struct {
	ExportID         string `json:"export_id"`
	Locator          string `json:"pdf_url"`
	RemainingCredits *int   `json:"remaining_credits,omitempty"`
}

// Session is one editing session for an owner and a professional field. All
// methods are safe for concurrent use; writes are serialized so the session
// stays the single writer of its profile.
type Session struct {
	id     string
	owner  Identity
	field  sections.Field
	deps   *deps
	logger *slog.Logger

	mu         sync.Mutex
	content    profile.Profile
	editor     presentation
	limits     quota.Limits
	generating bool
	locator    string
}

type deps struct {
	backend      Backend
	store        StateStore
	profiles     *profile.Manager
	render       render.Options
	defaultLimit int
}

func newSession(id string, owner Identity, field sections.Field, d *deps, logger *slog.Logger) *Session {
	field = sections.ParseField(string(field))
	p := profile.New(field)
	p.OwnerID = owner.OwnerID
	p.Contact.Email = owner.Email
	return &Session{
		id:      id,
		owner:   owner,
		field:   field,
		deps:    d,
		logger:  logger.With("session_id", id, "owner_id", owner.OwnerID, "field", string(field)),
		content: p,
		editor: presentation{
			active:    sections.NewActive(field),
			collapsed: make(map[sections.ID]bool),
		},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Field returns the professional field being edited.
func (s *Session) Field() sections.Field { return s.field }

// Owner returns the identity the session edits for.
func (s *Session) Owner() Identity { return s.owner }

// load hydrates the session with the stored profile and the limits snapshot
// taken when the session was opened, and restores saved presentation state.
// A missing profile is the normal first-use case and leaves the blank profile
// in place. A stored profile only replaces the blank one when it has a name.
func (s *Session) load(ctx context.Context, limits quota.Limits) {
	loaded, err := s.deps.profiles.Get(ctx, s.owner.OwnerID, s.field)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		s.logger.Debug("no stored profile")
	case err != nil:
		s.logger.Warn("loading profile failed, starting blank", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil && loaded.Name != "" {
		loaded.ProfessionalField = s.field
		if loaded.OwnerID == "" {
			loaded.OwnerID = s.owner.OwnerID
		}
		s.content = loaded
	}
	s.limits = limits
	s.restoreLocked()
}

func (s *Session) restoreLocked() {
	if s.deps.store == nil {
		return
	}
	st, err := s.deps.store.GetEditorState(s.owner.OwnerID, string(s.field))
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("loading editor state failed", "error", err)
		return
	}

	ids := make([]sections.ID, len(st.ActiveSections))
	for i, id := range st.ActiveSections {
		ids[i] = sections.ID(id)
	}
	s.editor.active = sections.ActiveFrom(ids)
	s.editor.collapsed = make(map[sections.ID]bool, len(st.Collapsed))
	for _, id := range st.Collapsed {
		s.editor.collapsed[sections.ID(id)] = true
	}
	if st.ZoomLevel > 0 {
		s.editor.viewport = render.ViewportFromState(render.ViewState{Level: st.ZoomLevel, ContainerWidth: s.editor.viewport.State().ContainerWidth})
	}
}

// Profile returns the current canonical profile. Callers must not modify it;
// profiles are only ever changed through Edit or Replace.
func (s *Session) Profile() profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// Limits returns the current usage snapshot.
func (s *Session) Limits() quota.Limits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits
}

// Edit applies e to the canonical profile. A rejected edit leaves the profile
// unchanged.
func (s *Session) Edit(e Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := Apply(s.content, e)
	if err != nil {
		return err
	}
	s.content = next
	return nil
}

// Replace swaps in a whole profile, such as one read from a file. The result
// is normalized and keeps the session's owner and field.
func (s *Session) Replace(p profile.Profile) {
	p = profile.Normalize(p)
	p.ProfessionalField = s.field
	p.OwnerID = s.owner.OwnerID

	s.mu.Lock()
	s.content = p
	s.mu.Unlock()
}

// Generate exports a snapshot of the current profile. The returned locator
// replaces the live preview until BackToEditor is called.
func (s *Session) Generate(ctx context.Context) (Result, error) {
	snap, err := s.begin(func(p profile.Profile) error {
		if strings.TrimSpace(p.Name) == "" {
			return ErrNameRequired
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	defer s.finish()

	out, err := s.deps.backend.GenerateResume(ctx, snap)
	if err != nil {
		s.logger.Warn("generate failed", "error", err)
		return Result{}, &ServiceError{Fallback: "Generation failed", Err: err}
	}

	res := Result{Locator: out.PDFURL}
	res.ExportID = s.recordExport(storage.KindResume, out.PDFURL, nil)

	s.mu.Lock()
	s.locator = out.PDFURL
	s.mu.Unlock()

	s.deps.profiles.Invalidate(s.owner.OwnerID, s.field)
	s.logger.Info("resume generated", "export_id", res.ExportID)
	return res, nil
}

// Tailor asks the service for a variant of the stored profile optimized for
// jobDescription. The remaining balance it reports becomes the session's
// credit count.
func (s *Session) Tailor(ctx context.Context, jobDescription string) (Result, error) {
	_, err := s.begin(func(profile.Profile) error {
		if strings.TrimSpace(jobDescription) == "" {
			return ErrJobDescriptionRequired
		}
		if !s.limits.CanTailor() {
			return ErrNoCredits
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	defer s.finish()

	out, err := s.deps.backend.GenerateTailored(ctx, s.owner.OwnerID, jobDescription)
	if err != nil {
		s.logger.Warn("tailor failed", "error", err)
		return Result{}, &ServiceError{Fallback: "Tailoring failed", Err: err}
	}

	remaining := out.RemainingCredits
	res := Result{Locator: out.PDFURL, RemainingCredits: &remaining}
	res.ExportID = s.recordExport(storage.KindTailored, out.PDFURL, &remaining)

	s.mu.Lock()
	s.locator = out.PDFURL
	s.limits = s.limits.WithCredits(remaining)
	s.mu.Unlock()

	s.deps.profiles.Invalidate(s.owner.OwnerID, s.field)
	s.logger.Info("tailored resume generated", "export_id", res.ExportID, "remaining_credits", remaining)
	return res, nil
}

// begin validates under the lock and marks the session as generating. It
// returns the profile snapshot the request works from.
func (s *Session) begin(check func(profile.Profile) error) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating {
		return profile.Profile{}, ErrBusy
	}
	if err := check(s.content); err != nil {
		return profile.Profile{}, err
	}
	s.generating = true
	return s.content, nil
}

func (s *Session) finish() {
	s.mu.Lock()
	s.generating = false
	s.mu.Unlock()
}

// recordExport stores an export record and returns its ID. History is best
// effort; a failed write is logged and the export still succeeds.
func (s *Session) recordExport(kind, locator string, remaining *int) string {
	id := uuid.NewString()
	if s.deps.store == nil {
		return id
	}
	err := s.deps.store.SaveExport(storage.Export{
		ID:               id,
		OwnerID:          s.owner.OwnerID,
		Field:            string(s.field),
		Kind:             kind,
		PDFURL:           locator,
		RemainingCredits: remaining,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("recording export failed", "export_id", id, "error", err)
	}
	return id
}

// BackToEditor drops the generated document and returns to the live preview.
func (s *Session) BackToEditor() {
	s.mu.Lock()
	s.locator = ""
	s.mu.Unlock()
}

// SetTailorMode switches the editing surface between editing and pasting a
// job description.
func (s *Session) SetTailorMode(on bool) {
	s.mu.Lock()
	s.editor.tailorMode = on
	s.mu.Unlock()
}

// RemoveSection hides id from the document. Its data stays in the profile.
func (s *Session) RemoveSection(id sections.ID) bool {
	return s.updateEditor(func(e *presentation) bool {
		if !e.active.Remove(id) {
			return false
		}
		delete(e.collapsed, id)
		return true
	})
}

// AddSection re-adds a catalog section at the end of the document.
func (s *Session) AddSection(id sections.ID) bool {
	return s.updateEditor(func(e *presentation) bool { return e.active.Add(id) })
}

// ToggleCollapsed flips the collapsed state of an active section and reports
// the new state.
func (s *Session) ToggleCollapsed(id sections.ID) bool {
	var collapsed bool
	s.updateEditor(func(e *presentation) bool {
		if !e.active.Contains(id) {
			return false
		}
		collapsed = !e.collapsed[id]
		if collapsed {
			e.collapsed[id] = true
		} else {
			delete(e.collapsed, id)
		}
		return true
	})
	return collapsed
}

// Zoom actions.
const (
	ZoomIn    = "in"
	ZoomOut   = "out"
	ZoomReset = "reset"
)

// Zoom applies a zoom action and returns the new indicator label.
func (s *Session) Zoom(action string) (string, error) {
	var label string
	var bad bool
	s.updateEditor(func(e *presentation) bool {
		switch action {
		case ZoomIn:
			e.viewport.ZoomIn()
		case ZoomOut:
			e.viewport.ZoomOut()
		case ZoomReset:
			e.viewport.Reset()
		default:
			bad = true
			return false
		}
		label = e.viewport.Label()
		return true
	})
	if bad {
		return "", fmt.Errorf("%w: unknown zoom action %q", ErrInvalidEdit, action)
	}
	return label, nil
}

// SetContainerWidth records the preview container width. It is not persisted.
func (s *Session) SetContainerWidth(px int) {
	s.mu.Lock()
	s.editor.viewport.SetContainerWidth(px)
	s.mu.Unlock()
}

// Viewport returns the current zoom state.
func (s *Session) Viewport() render.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.viewport
}

// updateEditor applies fn to the presentation state and, when it reports a
// change, persists the result before releasing the lock so saves land in the
// same order as the changes.
func (s *Session) updateEditor(fn func(*presentation) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn(&s.editor) {
		return false
	}
	if s.deps.store != nil {
		if err := s.deps.store.SaveEditorState(s.editorStateLocked()); err != nil {
			s.logger.Warn("saving editor state failed", "error", err)
		}
	}
	return true
}

func (s *Session) editorStateLocked() storage.EditorState {
	ids := s.editor.active.IDs()
	active := make([]string, len(ids))
	for i, id := range ids {
		active[i] = string(id)
	}
	var collapsed []string
	for _, id := range ids {
		if s.editor.collapsed[id] {
			collapsed = append(collapsed, string(id))
		}
	}
	lvl, _ := s.editor.viewport.Level()
	return storage.EditorState{
		OwnerID:        s.owner.OwnerID,
		Field:          string(s.field),
		ActiveSections: active,
		Collapsed:      collapsed,
		ZoomLevel:      lvl,
		UpdatedAt:      time.Now().UTC(),
	}
}

// SectionView is one active section as listed in the editing surface.
type SectionView struct {
	ID        sections.ID `json:"id"`
	Title     string      `json:"title"`
	Count     int         `json:"count"`
	Collapsed bool        `json:"collapsed"`
}

// View is a consistent snapshot of everything the editing surface shows.
type View struct {
	SessionID  string                `json:"session_id"`
	OwnerID    string                `json:"owner_id"`
	Field      sections.Field        `json:"field"`
	FieldLabel string                `json:"field_label"`
	Document   render.Document       `json:"document"`
	Locator    string                `json:"pdf_url,omitempty"`
	Sections   []SectionView         `json:"sections"`
	Available  []sections.ID         `json:"available_sections"`
	Contact    []sections.ContactKey `json:"contact_fields"`
	Zoom       string                `json:"zoom"`
	Viewport   render.ViewState      `json:"viewport"`
	Scale      float64               `json:"scale"`
	PageHeight float64               `json:"page_height"`
	Credits    *int                  `json:"tailor_credits"`
	CanTailor  bool                  `json:"can_tailor"`
	Generating bool                  `json:"generating"`
	TailorMode bool                  `json:"tailor_mode"`
}

// View renders the current profile and collects the presentation state.
func (s *Session) View() View {
	s.mu.Lock()
	p := s.content
	ids := s.editor.active.IDs()
	list := make([]SectionView, len(ids))
	for i, id := range ids {
		list[i] = SectionView{ID: id, Title: sections.Title(id), Count: SectionCount(p, id), Collapsed: s.editor.collapsed[id]}
	}
	v := View{
		SessionID:  s.id,
		OwnerID:    s.owner.OwnerID,
		Field:      s.field,
		FieldLabel: sections.Label(s.field),
		Locator:    s.locator,
		Sections:   list,
		Available:  s.editor.active.Missing(),
		Contact:    sections.ContactFieldsFor(s.field),
		Zoom:       s.editor.viewport.Label(),
		Viewport:   s.editor.viewport.State(),
		Scale:      s.editor.viewport.Scale(),
		PageHeight: s.editor.viewport.PageHeight(),
		Credits:    copyInt(s.limits.TailorCredits),
		CanTailor:  s.limits.CanTailor(),
		Generating: s.generating,
		TailorMode: s.editor.tailorMode,
	}
	opts := s.deps.render
	s.mu.Unlock()

	v.Document = render.Render(p, ids, opts)
	return v
}

// Document renders the current profile with the active sections.
func (s *Session) Document() render.Document {
	s.mu.Lock()
	p, ids := s.content, s.editor.active.IDs()
	s.mu.Unlock()
	return render.Render(p, ids, s.deps.render)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
