package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nomoreats/builder/internal/sections"
)

// ErrNotFound is returned by a Source when no profile is stored for the
// requested owner and field.
var ErrNotFound = errors.New("profile not found")

// Source fetches stored profiles. Implemented by backend.Client.
type Source interface {
	FetchProfile(ctx context.Context, ownerID string, field sections.Field) (Profile, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type cacheKey struct {
	owner string
	field sections.Field
}

type cacheEntry struct {
	profile Profile
	at      time.Time
}

// Manager provides cached access to stored profiles keyed by owner and field.
// Profiles are never modified in place, so cached values are handed out
// without copying.
type Manager struct {
	source Source
	clock  Clock
	ttl    time.Duration

	mu     sync.RWMutex
	cached map[cacheKey]cacheEntry
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(source Source) *Manager {
	return NewManagerWithClock(source, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(source Source, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		source: source,
		clock:  clock,
		ttl:    ttl,
		cached: make(map[cacheKey]cacheEntry),
	}
}

// Get returns the stored profile for owner and field, normalized so every
// list has at least one row. Source errors are wrapped, so callers test for
// ErrNotFound with errors.Is. Misses are not cached.
func (m *Manager) Get(ctx context.Context, ownerID string, field sections.Field) (Profile, error) {
	k := cacheKey{owner: ownerID, field: sections.ParseField(string(field))}

	m.mu.RLock()
	if e, ok := m.cached[k]; ok && m.clock.Now().Before(e.at.Add(m.ttl)) {
		m.mu.RUnlock()
		return e.profile, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.cached[k]; ok && m.clock.Now().Before(e.at.Add(m.ttl)) {
		return e.profile, nil
	}

	p, err := m.source.FetchProfile(ctx, k.owner, k.field)
	if err != nil {
		return Profile{}, fmt.Errorf("fetching profile %s/%s: %w", k.owner, k.field, err)
	}

	p = Normalize(p)
	m.cached[k] = cacheEntry{profile: p, at: m.clock.Now()}
	return p, nil
}

// Invalidate drops the cached profile for owner and field. Called after an
// export, since exporting rewrites the stored copy.
func (m *Manager) Invalidate(ownerID string, field sections.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cached, cacheKey{owner: ownerID, field: sections.ParseField(string(field))})
}

// maxSummaryChars caps the one-line summary used in listings.
const maxSummaryChars = 160

// Summary returns a compact one-line description of p for listings, e.g.
// "Ada Lovelace · Technology · 2 roles, 1 project".
func Summary(p Profile) string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "Untitled Resume"
	}
	parts := []string{name, sections.Label(p.ProfessionalField)}

	var counts []string
	if n := countFilled(ExperienceList.Get(p), ExperienceCompany); n > 0 {
		counts = append(counts, plural(n, "role", "roles"))
	}
	if n := countFilled(ProjectList.Get(p), ProjectName); n > 0 {
		counts = append(counts, plural(n, "project", "projects"))
	}
	if n := countFilled(EducationList.Get(p), EducationInstitution); n > 0 {
		counts = append(counts, plural(n, "school", "schools"))
	}
	if len(counts) > 0 {
		parts = append(parts, strings.Join(counts, ", "))
	}

	s := strings.Join(parts, " · ")
	if len(s) > maxSummaryChars {
		// Ensure we don't split a multi-byte UTF-8 character.
		end := maxSummaryChars
		for end > 0 && !utf8.RuneStart(s[end]) {
			end--
		}
		s = s[:end]
	}
	return s
}

func countFilled[T any](items []T, f Field[T]) int {
	n := 0
	for _, it := range items {
		if strings.TrimSpace(f.Get(it)) != "" {
			n++
		}
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
