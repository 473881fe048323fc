package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nomoreats/builder/internal/backend"
	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/render"
	"github.com/nomoreats/builder/internal/sections"
	"github.com/nomoreats/builder/internal/storage"
)

type fakeBackend struct {
	mu sync.Mutex

	profiles  map[sections.Field]profile.Profile
	profErr   error
	limits    backend.Limits
	limitsErr error
	genErr    error
	tailorErr error
	remaining int

	generated  []profile.Profile
	tailored   []string
	fetches    int
	limitCalls int
	block      chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles:  map[sections.Field]profile.Profile{},
		limits:    backend.Limits{TailorCredits: 3, FieldLimit: 2},
		remaining: 2,
	}
}

func (f *fakeBackend) FetchProfile(_ context.Context, _ string, field sections.Field) (profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.profErr != nil {
		return profile.Profile{}, f.profErr
	}
	p, ok := f.profiles[field]
	if !ok {
		return profile.Profile{}, backend.ErrNotFound
	}
	return p, nil
}

func (f *fakeBackend) ListProfiles(context.Context, string) ([]profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profErr != nil {
		return nil, f.profErr
	}
	out := make([]profile.Profile, 0, len(f.profiles))
	for _, field := range sections.Fields() {
		if p, ok := f.profiles[field]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetLimits(context.Context, string) (backend.Limits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limitCalls++
	return f.limits, f.limitsErr
}

func (f *fakeBackend) GenerateResume(_ context.Context, p profile.Profile) (backend.Generated, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.genErr != nil {
		return backend.Generated{}, f.genErr
	}
	f.generated = append(f.generated, p)
	return backend.Generated{PDFURL: "https://files.example/resume.pdf"}, nil
}

func (f *fakeBackend) GenerateTailored(_ context.Context, _ string, jd string) (backend.Tailored, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tailorErr != nil {
		return backend.Tailored{}, f.tailorErr
	}
	f.tailored = append(f.tailored, jd)
	return backend.Tailored{PDFURL: "https://files.example/tailored.pdf", RemainingCredits: f.remaining}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	states  map[string]storage.EditorState
	exports []storage.Export
	pages   map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[string]storage.EditorState{}, pages: map[string]int{}}
}

func (s *fakeStore) GetEditorState(owner, field string) (storage.EditorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[owner+"/"+field]
	if !ok {
		return storage.EditorState{}, storage.ErrNotFound
	}
	return st, nil
}

func (s *fakeStore) SaveEditorState(st storage.EditorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.OwnerID+"/"+st.Field] = st
	return nil
}

func (s *fakeStore) SaveExport(e storage.Export) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, e)
	return nil
}

func (s *fakeStore) SetExportPages(id string, pages int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[id] = pages
	return nil
}

func findSection(d render.Document, id sections.ID) (render.Section, bool) {
	for _, s := range d.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return render.Section{}, false
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(b *fakeBackend, st *fakeStore) *Service {
	opts := Options{Logger: quietLogger()}
	if st == nil {
		return NewService(b, nil, opts)
	}
	return NewService(b, st, opts)
}

var ada = Identity{OwnerID: "user_1", Email: "ada@example.com"}

func openSession(t *testing.T, svc *Service, field sections.Field) *Session {
	t.Helper()
	sess, err := svc.Open(context.Background(), ada, field)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return sess
}

func TestOpen_NotFoundYieldsBlankProfile(t *testing.T) {
	b := newFakeBackend()
	sess := openSession(t, newTestService(b, nil), sections.Tech)

	p := sess.Profile()
	if p.Name != "" {
		t.Errorf("Name = %q, want blank", p.Name)
	}
	if p.Contact.Email != ada.Email {
		t.Errorf("Email = %q, want seeded %q", p.Contact.Email, ada.Email)
	}
	if p.ProfessionalField != sections.Tech {
		t.Errorf("field = %q", p.ProfessionalField)
	}
	if len(p.Experience) != 1 {
		t.Errorf("experience rows = %d, want 1 placeholder", len(p.Experience))
	}
}

func TestOpen_HydratesNamedProfile(t *testing.T) {
	b := newFakeBackend()
	b.profiles[sections.Tech] = profile.Profile{
		OwnerID:           "user_1",
		Name:              "Ada Lovelace",
		ProfessionalField: "TECH",
		Contact:           profile.Contact{Email: "stored@example.com"},
		Experience:        []profile.Experience{{Company: "Analytical Engines Ltd"}},
	}
	sess := openSession(t, newTestService(b, nil), sections.Tech)

	p := sess.Profile()
	if p.Name != "Ada Lovelace" || p.Contact.Email != "stored@example.com" {
		t.Errorf("loaded profile not adopted: %+v", p)
	}
	if p.ProfessionalField != sections.Tech {
		t.Errorf("field = %q, want forced to tech", p.ProfessionalField)
	}
	if len(p.Languages) != 1 {
		t.Errorf("languages not normalized: %v", p.Languages)
	}
	if diff := cmp.Diff([]string{""}, p.Experience[0].Description); diff != "" {
		t.Errorf("stored entry without bullets not given a slot (-want +got):\n%s", diff)
	}
}

func TestOpen_UnnamedProfileIgnored(t *testing.T) {
	b := newFakeBackend()
	b.profiles[sections.Sales] = profile.Profile{Experience: []profile.Experience{{Company: "Acme"}}}
	sess := openSession(t, newTestService(b, nil), sections.Sales)

	if got := sess.Profile().Experience[0].Company; got != "" {
		t.Errorf("unnamed stored profile replaced the blank one: company %q", got)
	}
}

func TestOpen_BackendFailureStillOpens(t *testing.T) {
	b := newFakeBackend()
	b.profErr = errors.New("connection refused")
	b.limitsErr = errors.New("connection refused")
	sess := openSession(t, newTestService(b, nil), sections.Tech)

	l := sess.Limits()
	if !l.CreditsKnown() || l.Credits() != 0 {
		t.Errorf("credits = %v, want known 0", l.TailorCredits)
	}
	if l.CanTailor() {
		t.Error("CanTailor should be false after a failed limits fetch")
	}
}

func TestOpen_FieldLocked(t *testing.T) {
	b := newFakeBackend()
	b.limits = backend.Limits{TailorCredits: 1, UsedFields: []string{"tech", "sales"}, FieldLimit: 2}
	svc := newTestService(b, nil)

	if _, err := svc.Open(context.Background(), ada, sections.Marketing); !errors.Is(err, ErrFieldLocked) {
		t.Errorf("Open(marketing) = %v, want ErrFieldLocked", err)
	}
	if _, err := svc.Open(context.Background(), ada, sections.Tech); err != nil {
		t.Errorf("Open(tech) = %v, want nil", err)
	}
	if svc.Len() != 1 {
		t.Errorf("open sessions = %d, want 1", svc.Len())
	}
}

func TestSession_EndToEndPreview(t *testing.T) {
	sess := openSession(t, newTestService(newFakeBackend(), nil), sections.Tech)
	sess.Edit(Edit{Op: OpSet, Target: "contact", Field: "email", Value: ""})

	if doc := sess.Document(); !doc.Empty {
		t.Fatalf("expected empty state, got %+v", doc)
	}

	if err := sess.Edit(Edit{Op: OpSet, Target: "name", Value: "Ada Lovelace"}); err != nil {
		t.Fatal(err)
	}
	if err := sess.Edit(Edit{Op: OpSet, Target: "experience", Index: idx(0), Field: "company", Value: "Analytical Engines Ltd"}); err != nil {
		t.Fatal(err)
	}

	doc := sess.Document()
	if doc.Empty || doc.Header.Name != "Ada Lovelace" {
		t.Fatalf("header = %+v", doc.Header)
	}
	exp, ok := findSection(doc, sections.Experience)
	if !ok {
		t.Fatalf("experience not rendered: %+v", doc.Sections)
	}
	for _, id := range []sections.ID{sections.Summary, sections.EducationList, sections.Projects} {
		if _, ok := findSection(doc, id); ok {
			t.Errorf("section %s should be hidden", id)
		}
	}
	e := exp.Entries[0]
	if e.Heading != render.PlaceholderRole {
		t.Errorf("heading = %q, want %q", e.Heading, render.PlaceholderRole)
	}
	if e.Sub != "Analytical Engines Ltd" {
		t.Errorf("sub = %q", e.Sub)
	}
}

func TestSession_SoftHide(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(newFakeBackend(), st)
	sess := openSession(t, svc, sections.Tech)
	sess.Edit(Edit{Op: OpSet, Target: "name", Value: "Ada"})
	sess.Edit(Edit{Op: OpSet, Target: "experience", Index: idx(0), Field: "company", Value: "AE Ltd"})

	if !sess.RemoveSection(sections.Experience) {
		t.Fatal("RemoveSection reported no change")
	}
	if _, ok := findSection(sess.Document(), sections.Experience); ok {
		t.Error("hidden section still rendered")
	}
	if sess.Profile().Experience[0].Company != "AE Ltd" {
		t.Error("hiding a section deleted its data")
	}

	if !sess.AddSection(sections.Experience) {
		t.Fatal("AddSection reported no change")
	}
	v := sess.View()
	if last := v.Sections[len(v.Sections)-1].ID; last != sections.Experience {
		t.Errorf("re-added section at %q, want at end", last)
	}
	if _, ok := findSection(v.Document, sections.Experience); !ok {
		t.Error("re-added section did not restore content")
	}

	saved, err := st.GetEditorState(ada.OwnerID, "tech")
	if err != nil {
		t.Fatalf("editor state not persisted: %v", err)
	}
	if got := saved.ActiveSections[len(saved.ActiveSections)-1]; got != "experience" {
		t.Errorf("persisted order ends with %q", got)
	}
}

func TestSession_PresentationRestored(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(newFakeBackend(), st)

	first := openSession(t, svc, sections.Tech)
	first.RemoveSection(sections.Projects)
	first.ToggleCollapsed(sections.Skills)
	if _, err := first.Zoom(ZoomIn); err != nil {
		t.Fatal(err)
	}

	second := openSession(t, svc, sections.Tech)
	v := second.View()
	for _, s := range v.Sections {
		if s.ID == sections.Projects {
			t.Error("removed section came back")
		}
		if s.ID == sections.Skills && !s.Collapsed {
			t.Error("collapsed state not restored")
		}
	}
	if v.Zoom != "120%" {
		t.Errorf("zoom = %q, want 120%%", v.Zoom)
	}
	if diff := cmp.Diff(first.Profile(), second.Profile()); diff != "" {
		t.Errorf("profiles differ:\n%s", diff)
	}
}

func TestSession_Zoom(t *testing.T) {
	sess := openSession(t, newTestService(newFakeBackend(), nil), sections.Tech)

	steps := []struct {
		action string
		want   string
	}{
		{ZoomOut, "80%"},
		{ZoomIn, "90%"},
		{ZoomReset, "Fit"},
		{ZoomIn, "120%"},
	}
	for _, s := range steps {
		got, err := sess.Zoom(s.action)
		if err != nil {
			t.Fatalf("Zoom(%s): %v", s.action, err)
		}
		if got != s.want {
			t.Errorf("Zoom(%s) = %q, want %q", s.action, got, s.want)
		}
	}
	if _, err := sess.Zoom("sideways"); !errors.Is(err, ErrInvalidEdit) {
		t.Errorf("unknown action: %v", err)
	}
}

func TestSession_ContainerWidthOnlyAffectsFit(t *testing.T) {
	sess := openSession(t, newTestService(newFakeBackend(), nil), sections.Tech)
	sess.SetContainerWidth(397)
	if got := sess.View().Scale; got != 0.5 {
		t.Errorf("fit scale = %v, want 0.5", got)
	}
	sess.Zoom(ZoomIn)
	sess.SetContainerWidth(1588)
	if got := sess.View().Scale; got != 1.2 {
		t.Errorf("manual scale = %v, want 1.2", got)
	}
}

func TestGenerate(t *testing.T) {
	b := newFakeBackend()
	st := newFakeStore()
	sess := openSession(t, newTestService(b, st), sections.Tech)

	if _, err := sess.Generate(context.Background()); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("Generate without name = %v, want ErrNameRequired", err)
	}
	if len(b.generated) != 0 {
		t.Fatal("backend called despite validation failure")
	}

	sess.Edit(Edit{Op: OpSet, Target: "name", Value: "Ada Lovelace"})
	before := sess.Profile()
	res, err := sess.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Locator != "https://files.example/resume.pdf" {
		t.Errorf("locator = %q", res.Locator)
	}
	if diff := cmp.Diff(before, b.generated[0]); diff != "" {
		t.Errorf("sent profile differs from snapshot:\n%s", diff)
	}
	if diff := cmp.Diff(before, sess.Profile()); diff != "" {
		t.Errorf("generation changed the canonical profile:\n%s", diff)
	}
	if v := sess.View(); v.Locator != res.Locator || v.Generating {
		t.Errorf("view after generate: locator %q generating %v", v.Locator, v.Generating)
	}
	if len(st.exports) != 1 || st.exports[0].Kind != storage.KindResume || st.exports[0].ID != res.ExportID {
		t.Errorf("exports = %+v", st.exports)
	}

	sess.BackToEditor()
	if sess.View().Locator != "" {
		t.Error("BackToEditor kept the locator")
	}
}

func TestGenerate_ServiceFailure(t *testing.T) {
	b := newFakeBackend()
	b.genErr = &backend.APIError{Status: 500, Detail: "Compiler crashed"}
	sess := openSession(t, newTestService(b, nil), sections.Tech)
	sess.Edit(Edit{Op: OpSet, Target: "name", Value: "Ada"})
	before := sess.Profile()

	_, err := sess.Generate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := Notice(err); got != "Compiler crashed" {
		t.Errorf("Notice = %q", got)
	}
	if sess.View().Generating {
		t.Error("generating flag not cleared")
	}
	if diff := cmp.Diff(before, sess.Profile()); diff != "" {
		t.Errorf("profile changed on failure:\n%s", diff)
	}

	b.genErr = errors.New("dial tcp: refused")
	_, err = sess.Generate(context.Background())
	if got := Notice(err); got != "Generation failed" {
		t.Errorf("Notice = %q, want fallback", got)
	}
}

func TestGenerate_Busy(t *testing.T) {
	b := newFakeBackend()
	b.block = make(chan struct{})
	sess := openSession(t, newTestService(b, nil), sections.Tech)
	sess.Edit(Edit{Op: OpSet, Target: "name", Value: "Ada"})

	done := make(chan error, 1)
	go func() {
		_, err := sess.Generate(context.Background())
		done <- err
	}()

	// Wait until the first request holds the generating flag.
	for !sess.View().Generating {
		select {
		case err := <-done:
			t.Fatalf("first Generate returned early: %v", err)
		default:
		}
	}

	if _, err := sess.Generate(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Generate = %v, want ErrBusy", err)
	}
	if err := sess.Edit(Edit{Op: OpSet, Target: "name", Value: "Ada L."}); err != nil {
		t.Errorf("edits must stay allowed while generating: %v", err)
	}

	close(b.block)
	if err := <-done; err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if b.generated[0].Name != "Ada" {
		t.Errorf("sent name %q, want the snapshot taken at call time", b.generated[0].Name)
	}
}

func TestTailor(t *testing.T) {
	b := newFakeBackend()
	st := newFakeStore()
	sess := openSession(t, newTestService(b, st), sections.Tech)

	if _, err := sess.Tailor(context.Background(), "   "); !errors.Is(err, ErrJobDescriptionRequired) {
		t.Fatalf("Tailor(blank) = %v", err)
	}

	b.remaining = 7
	res, err := sess.Tailor(context.Background(), "Staff engineer, compilers")
	if err != nil {
		t.Fatalf("Tailor: %v", err)
	}
	if res.RemainingCredits == nil || *res.RemainingCredits != 7 {
		t.Errorf("RemainingCredits = %v", res.RemainingCredits)
	}
	if got := sess.Limits().Credits(); got != 7 {
		t.Errorf("credits = %d, want adopted 7 (no local decrement)", got)
	}
	if len(st.exports) != 1 || st.exports[0].Kind != storage.KindTailored || *st.exports[0].RemainingCredits != 7 {
		t.Errorf("exports = %+v", st.exports)
	}
}

func TestTailor_NoCredits(t *testing.T) {
	b := newFakeBackend()
	b.limits.TailorCredits = 1
	b.remaining = 0
	sess := openSession(t, newTestService(b, nil), sections.Tech)

	if _, err := sess.Tailor(context.Background(), "job"); err != nil {
		t.Fatalf("first Tailor: %v", err)
	}
	if sess.View().CanTailor {
		t.Error("CanTailor true with zero credits")
	}
	if _, err := sess.Tailor(context.Background(), "job"); !errors.Is(err, ErrNoCredits) {
		t.Errorf("second Tailor = %v, want ErrNoCredits", err)
	}
	if len(b.tailored) != 1 {
		t.Errorf("backend calls = %d, want 1", len(b.tailored))
	}
}

func TestTailor_ServiceFailure(t *testing.T) {
	b := newFakeBackend()
	b.tailorErr = errors.New("timeout")
	sess := openSession(t, newTestService(b, nil), sections.Tech)

	_, err := sess.Tailor(context.Background(), "job")
	if got := Notice(err); got != "Tailoring failed" {
		t.Errorf("Notice = %q", got)
	}
	if got := sess.Limits().Credits(); got != 3 {
		t.Errorf("credits = %d, want unchanged 3", got)
	}
}

func TestReplace(t *testing.T) {
	sess := openSession(t, newTestService(newFakeBackend(), nil), sections.Design)
	sess.Replace(profile.Profile{Name: "Grace", ProfessionalField: sections.Tech, OwnerID: "someone_else"})

	p := sess.Profile()
	if p.ProfessionalField != sections.Design || p.OwnerID != ada.OwnerID {
		t.Errorf("Replace did not keep session identity: %q %q", p.ProfessionalField, p.OwnerID)
	}
	if len(p.Awards) != 1 {
		t.Error("Replace did not normalize")
	}
}

func TestView_ContactFieldsFollowField(t *testing.T) {
	sess := openSession(t, newTestService(newFakeBackend(), nil), sections.Marketing)
	want := sections.ContactFieldsFor(sections.Marketing)
	if diff := cmp.Diff(want, sess.View().Contact); diff != "" {
		t.Errorf("contact fields (-want +got):\n%s", diff)
	}
}

func TestService_GetClose(t *testing.T) {
	svc := newTestService(newFakeBackend(), nil)
	sess := openSession(t, svc, sections.Tech)

	got, err := svc.Get(sess.ID())
	if err != nil || got != sess {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if !svc.Close(sess.ID()) {
		t.Error("Close reported missing session")
	}
	if _, err := svc.Get(sess.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Close = %v", err)
	}
	if svc.Close(sess.ID()) {
		t.Error("second Close reported success")
	}
}

func TestListResumes(t *testing.T) {
	b := newFakeBackend()
	b.limits = backend.Limits{TailorCredits: 4, UsedFields: []string{"tech", "sales"}, FieldLimit: 2}
	b.profiles[sections.Tech] = profile.Profile{Name: "Ada Lovelace", ProfessionalField: sections.Tech, Experience: []profile.Experience{{Company: "AE Ltd"}}}
	b.profiles[sections.Sales] = profile.Profile{Name: "Ada Lovelace", ProfessionalField: sections.Sales}
	svc := newTestService(b, nil)

	l, err := svc.ListResumes(context.Background(), ada.OwnerID)
	if err != nil {
		t.Fatalf("ListResumes: %v", err)
	}
	if len(l.Resumes) != 2 {
		t.Fatalf("resumes = %d, want 2", len(l.Resumes))
	}
	tech := l.Resumes[0]
	if tech.Filename != "Ada Lovelace_tech.pdf" || tech.Label != "Technology" {
		t.Errorf("tech entry = %+v", tech)
	}
	if _, ok := findSection(tech.Document, sections.Experience); !ok {
		t.Errorf("tech preview sections = %+v", tech.Document.Sections)
	}
	if _, ok := findSection(l.Resumes[1].Document, sections.Experience); ok {
		t.Error("sales preview shows an experience section with no company")
	}
	if l.Credits == nil || *l.Credits != 4 {
		t.Errorf("credits = %v", l.Credits)
	}
	for _, fs := range l.Fields {
		wantLocked := fs.Field != sections.Tech && fs.Field != sections.Sales
		if fs.Locked != wantLocked {
			t.Errorf("%s locked = %v, want %v", fs.Field, fs.Locked, wantLocked)
		}
	}
}

func TestListResumes_ProfileFailure(t *testing.T) {
	b := newFakeBackend()
	b.profErr = errors.New("boom")
	if _, err := newTestService(b, nil).ListResumes(context.Background(), ada.OwnerID); err == nil {
		t.Error("expected error")
	}
}

func TestGenerate_InvalidatesCache(t *testing.T) {
	b := newFakeBackend()
	b.profiles[sections.Tech] = profile.Profile{Name: "Ada"}
	svc := newTestService(b, nil)

	sess := openSession(t, svc, sections.Tech)
	openSession(t, svc, sections.Tech)
	if b.fetches != 1 {
		t.Fatalf("fetches = %d, want 1 (cached)", b.fetches)
	}
	if _, err := sess.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	openSession(t, svc, sections.Tech)
	if b.fetches != 2 {
		t.Errorf("fetches = %d, want 2 after export", b.fetches)
	}
}

func TestDownload(t *testing.T) {
	doc := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(doc)
	}))
	defer srv.Close()

	st := newFakeStore()
	svc := NewService(newFakeBackend(), st, Options{Logger: quietLogger(), HTTPClient: srv.Client()})
	sess := openSession(t, svc, sections.Tech)

	// A truncated document is rejected by the inspector and never written.
	_, err := svc.Download(context.Background(), sess, Result{ExportID: "x", Locator: srv.URL}, t.TempDir())
	if err == nil {
		t.Fatal("expected inspection error for a truncated document")
	}
	if _, ok := st.pages["x"]; ok {
		t.Error("page count recorded for a failed download")
	}
}

func TestNotice(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNameRequired, "Please enter your name"},
		{fmt.Errorf("wrapped: %w", ErrJobDescriptionRequired), "Please paste a job description"},
		{&ServiceError{Fallback: "Generation failed", Err: &backend.APIError{Status: 422, Detail: "Name too long"}}, "Name too long"},
		{&ServiceError{Fallback: "Tailoring failed", Err: &backend.APIError{Status: 500}}, "Tailoring failed"},
	}
	for _, tc := range tests {
		if got := Notice(tc.err); got != tc.want {
			t.Errorf("Notice(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestOpen_FetchesLimitsOnce(t *testing.T) {
	b := newFakeBackend()
	sess := openSession(t, newTestService(b, nil), sections.Tech)

	if b.limitCalls != 1 {
		t.Errorf("limits fetched %d times, want 1", b.limitCalls)
	}
	if got := sess.Limits().Credits(); got != 3 {
		t.Errorf("credits = %d, want 3 from the gate snapshot", got)
	}

	b.limitsErr = errors.New("connection refused")
	sess = openSession(t, newTestService(b, nil), sections.Design)
	if b.limitCalls != 2 {
		t.Errorf("limits fetched %d times after failure, want 2", b.limitCalls)
	}
	if sess.Limits().CanTailor() {
		t.Error("tailoring allowed with unavailable limits")
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestService_IdleSessionsExpire(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(newFakeBackend(), nil, Options{Logger: quietLogger(), SessionTTL: time.Hour, Clock: clock})

	a := openSession(t, svc, sections.Tech)
	clock.Advance(50 * time.Minute)
	if _, err := svc.Get(a.ID()); err != nil {
		t.Fatalf("Get within TTL: %v", err)
	}
	b := openSession(t, svc, sections.Sales)

	clock.Advance(50 * time.Minute)
	if _, err := svc.Get(a.ID()); err != nil {
		t.Fatalf("Get after use was refreshed: %v", err)
	}

	clock.Advance(30 * time.Minute)
	if n := svc.Sweep(); n != 1 {
		t.Errorf("Sweep = %d, want 1", n)
	}
	if _, err := svc.Get(b.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get idle session = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Get(a.ID()); err != nil {
		t.Errorf("Get active session: %v", err)
	}

	clock.Advance(2 * time.Hour)
	openSession(t, svc, sections.Design)
	if n := svc.Len(); n != 1 {
		t.Errorf("Len = %d after Open swept, want 1", n)
	}
	if _, err := svc.Get(a.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get expired session = %v", err)
	}
}

// slowStore delays every other save so concurrent writers overlap.
type slowStore struct {
	*fakeStore
	mu    sync.Mutex
	saves int
}

func (s *slowStore) SaveEditorState(st storage.EditorState) error {
	s.mu.Lock()
	s.saves++
	slow := s.saves%2 == 1
	s.mu.Unlock()
	if slow {
		time.Sleep(time.Millisecond)
	}
	return s.fakeStore.SaveEditorState(st)
}

func TestSession_EditorStateSavedInOrder(t *testing.T) {
	st := &slowStore{fakeStore: newFakeStore()}
	svc := NewService(newFakeBackend(), st, Options{Logger: quietLogger()})
	sess := openSession(t, svc, sections.Tech)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sess.ToggleCollapsed(sections.Experience)
		}()
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				sess.Zoom(ZoomIn)
			} else {
				sess.Zoom(ZoomOut)
			}
		}(i)
	}
	wg.Wait()

	saved, err := st.GetEditorState(ada.OwnerID, string(sections.Tech))
	if err != nil {
		t.Fatalf("GetEditorState: %v", err)
	}
	sess.mu.Lock()
	want := sess.editorStateLocked()
	sess.mu.Unlock()
	if diff := cmp.Diff(want, saved, cmpopts.IgnoreFields(storage.EditorState{}, "UpdatedAt")); diff != "" {
		t.Errorf("stored state is stale (-want +got):\n%s", diff)
	}
}
