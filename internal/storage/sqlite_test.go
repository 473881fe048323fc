package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if diff := cmp.Diff(v1, v2); diff != "" {
		t.Errorf("migrations changed on reopen (-first +second):\n%s", diff)
	}
}

func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, versions); diff != "" {
		t.Errorf("applied migrations (-want +got):\n%s", diff)
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", "idx_exports_owner_created").Scan(&count)
	if err != nil {
		t.Fatalf("querying index: %v", err)
	}
	if count != 1 {
		t.Error("index idx_exports_owner_created not found")
	}
}

func TestParseMigrationVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"001_init.sql", 1, false},
		{"002_export_pages_zoom.sql", 2, false},
		{"init.sql", 0, true},
	}
	for _, tc := range tests {
		got, err := parseMigrationVersion(tc.name)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseMigrationVersion(%q) err = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("parseMigrationVersion(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestSaveAndListExports(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	credits := 4

	exports := []Export{
		{ID: "e1", OwnerID: "user_1", Field: "tech", Kind: KindResume, PDFURL: "https://cdn/1.pdf", CreatedAt: base},
		{ID: "e2", OwnerID: "user_1", Field: "tech", Kind: KindTailored, PDFURL: "https://cdn/2.pdf", RemainingCredits: &credits, CreatedAt: base.Add(time.Minute)},
		{ID: "e3", OwnerID: "user_2", Field: "sales", Kind: KindResume, PDFURL: "https://cdn/3.pdf", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range exports {
		if err := s.SaveExport(e); err != nil {
			t.Fatalf("SaveExport(%s): %v", e.ID, err)
		}
	}

	got, err := s.ListExports("user_1", 10)
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	want := []Export{exports[1], exports[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("exports (-want +got):\n%s", diff)
	}
}

func TestListExports_Limit(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := Export{ID: fmt.Sprintf("e%d", i), OwnerID: "user_1", Field: "tech", Kind: KindResume, PDFURL: "u", CreatedAt: base.Add(time.Duration(i) * time.Millisecond)}
		if err := s.SaveExport(e); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.ListExports("user_1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "e4" || got[1].ID != "e3" {
		t.Errorf("got %+v, want e4, e3", got)
	}
}

func TestSaveExport_DuplicateID(t *testing.T) {
	s := openTestStore(t)
	e := Export{ID: "dup", OwnerID: "user_1", Field: "tech", Kind: KindResume, PDFURL: "u"}
	if err := s.SaveExport(e); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveExport(e); err == nil {
		t.Error("expected primary key violation")
	}
}

func TestSetExportPages(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveExport(Export{ID: "e1", OwnerID: "user_1", Field: "tech", Kind: KindResume, PDFURL: "u"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExportPages("e1", 2); err != nil {
		t.Fatalf("SetExportPages: %v", err)
	}
	got, err := s.ListExports("user_1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", got[0].PageCount)
	}
	if err := s.SetExportPages("missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEditorState_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	st := EditorState{
		OwnerID:        "user_1",
		Field:          "tech",
		ActiveSections: []string{"summary", "experience", "awards"},
		Collapsed:      []string{"experience"},
		ZoomLevel:      1.2,
	}
	if err := s.SaveEditorState(st); err != nil {
		t.Fatalf("SaveEditorState: %v", err)
	}

	got, err := s.GetEditorState("user_1", "tech")
	if err != nil {
		t.Fatalf("GetEditorState: %v", err)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
	got.UpdatedAt = time.Time{}
	if diff := cmp.Diff(st, got); diff != "" {
		t.Errorf("state (-want +got):\n%s", diff)
	}
}

func TestEditorState_Upsert(t *testing.T) {
	s := openTestStore(t)

	first := EditorState{OwnerID: "user_1", Field: "tech", ActiveSections: []string{"summary"}}
	if err := s.SaveEditorState(first); err != nil {
		t.Fatal(err)
	}
	second := EditorState{OwnerID: "user_1", Field: "tech", ActiveSections: []string{"skills"}, ZoomLevel: 0.8}
	if err := s.SaveEditorState(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEditorState("user_1", "tech")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"skills"}, got.ActiveSections); diff != "" {
		t.Errorf("active (-want +got):\n%s", diff)
	}
	if got.ZoomLevel != 0.8 {
		t.Errorf("ZoomLevel = %v, want 0.8", got.ZoomLevel)
	}
	if got.Collapsed == nil || len(got.Collapsed) != 0 {
		t.Errorf("Collapsed = %#v, want empty", got.Collapsed)
	}
}

func TestEditorState_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetEditorState("user_1", "legal"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
