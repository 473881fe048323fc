package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps a SQLite database holding export history and editor state.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "nomoreats.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies embedded SQL migrations that are not yet recorded in
// schema_version, in filename order, each in its own transaction.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Exports ---

func (s *Store) SaveExport(e Export) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	var credits sql.NullInt64
	if e.RemainingCredits != nil {
		credits = sql.NullInt64{Int64: int64(*e.RemainingCredits), Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO exports (id, owner_id, field, kind, pdf_url, remaining_credits, page_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Field, e.Kind, e.PDFURL, credits, e.PageCount,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// SetExportPages records the page count of an inspected export.
func (s *Store) SetExportPages(id string, pages int) error {
	res, err := s.db.Exec(`UPDATE exports SET page_count = ? WHERE id = ?`, pages, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExports returns the most recent exports of owner, newest first.
func (s *Store) ListExports(ownerID string, limit int) ([]Export, error) {
	rows, err := s.db.Query(`
		SELECT id, owner_id, field, kind, pdf_url, remaining_credits, page_count, created_at
		FROM exports WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?`, ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Export
	for rows.Next() {
		var e Export
		var credits sql.NullInt64
		var createdAt string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Field, &e.Kind, &e.PDFURL, &credits, &e.PageCount, &createdAt); err != nil {
			return nil, err
		}
		if credits.Valid {
			n := int(credits.Int64)
			e.RemainingCredits = &n
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		e.CreatedAt = t
		results = append(results, e)
	}
	return results, rows.Err()
}

// --- Editor state ---

func (s *Store) SaveEditorState(st EditorState) error {
	active, err := json.Marshal(nonNil(st.ActiveSections))
	if err != nil {
		return fmt.Errorf("encoding active sections: %w", err)
	}
	collapsed, err := json.Marshal(nonNil(st.Collapsed))
	if err != nil {
		return fmt.Errorf("encoding collapsed sections: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO editor_state (owner_id, field, active_sections, collapsed, zoom_level, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, field) DO UPDATE SET
			active_sections = excluded.active_sections,
			collapsed = excluded.collapsed,
			zoom_level = excluded.zoom_level,
			updated_at = excluded.updated_at`,
		st.OwnerID, st.Field, string(active), string(collapsed), st.ZoomLevel,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetEditorState(ownerID, field string) (EditorState, error) {
	st := EditorState{OwnerID: ownerID, Field: field}
	var active, collapsed, updatedAt string
	err := s.db.QueryRow(`
		SELECT active_sections, collapsed, zoom_level, updated_at
		FROM editor_state WHERE owner_id = ? AND field = ?`, ownerID, field,
	).Scan(&active, &collapsed, &st.ZoomLevel, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return EditorState{}, ErrNotFound
	}
	if err != nil {
		return EditorState{}, err
	}
	if err := json.Unmarshal([]byte(active), &st.ActiveSections); err != nil {
		return EditorState{}, fmt.Errorf("decoding active sections: %w", err)
	}
	if err := json.Unmarshal([]byte(collapsed), &st.Collapsed); err != nil {
		return EditorState{}, fmt.Errorf("decoding collapsed sections: %w", err)
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return EditorState{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	st.UpdatedAt = t
	return st, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
