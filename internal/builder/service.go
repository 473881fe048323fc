package builder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nomoreats/builder/internal/export"
	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/quota"
	"github.com/nomoreats/builder/internal/render"
	"github.com/nomoreats/builder/internal/sections"
)

// DefaultSessionTTL is how long a session may sit unused before it expires.
const DefaultSessionTTL = 2 * time.Hour

// Options configure a Service.
type Options struct {
	Render            render.Options
	DefaultFieldLimit int
	Logger            *slog.Logger
	// HTTPClient downloads generated documents. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// SessionTTL is the idle time after which a session is dropped.
	// Defaults to DefaultSessionTTL.
	SessionTTL time.Duration
	// Clock defaults to the system clock.
	Clock profile.Clock
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type sessionEntry struct {
	sess     *Session
	lastUsed time.Time
}

// Service owns the open editing sessions. A session that has not been
// retrieved for the TTL is expired and behaves as closed.
type Service struct {
	deps   *deps
	logger *slog.Logger
	hc     *http.Client
	clock  profile.Clock
	ttl    time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewService creates a Service. store may be nil, in which case presentation
// state and export history are not kept.
func NewService(b Backend, store StateStore, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.DefaultFieldLimit
	if limit <= 0 {
		limit = quota.DefaultFieldLimit
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	var clock profile.Clock = systemClock{}
	if opts.Clock != nil {
		clock = opts.Clock
	}
	return &Service{
		deps: &deps{
			backend:      b,
			store:        store,
			profiles:     profile.NewManager(b),
			render:       opts.Render,
			defaultLimit: limit,
		},
		logger:   logger,
		hc:       hc,
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]*sessionEntry),
	}
}

// RenderOptions returns the options sessions render with.
func (s *Service) RenderOptions() render.Options { return s.deps.render }

// Limits fetches the usage snapshot of owner. A failed fetch is returned
// alongside the fallback snapshot so callers can decide whether to surface it.
func (s *Service) Limits(ctx context.Context, ownerID string) (quota.Limits, error) {
	l, err := s.deps.backend.GetLimits(ctx, ownerID)
	if err != nil {
		return quota.Unavailable(s.deps.defaultLimit), err
	}
	return quota.NewLimits(l.TailorCredits, l.UsedFields, l.FieldLimit, s.deps.defaultLimit), nil
}

// Open starts a session for owner and field and hydrates it. Opening a field
// the owner is not yet using fails with ErrFieldLocked once the plan's field
// limit is reached. The gate is skipped when limits cannot be fetched, and
// the session starts with the fallback snapshot. Expired sessions are swept
// first.
func (s *Service) Open(ctx context.Context, owner Identity, field sections.Field) (*Session, error) {
	field = sections.ParseField(string(field))
	limits, err := s.Limits(ctx, owner.OwnerID)
	if err != nil {
		s.logger.Warn("loading limits failed", "owner_id", owner.OwnerID, "error", err)
	} else if limits.Locked(field) {
		return nil, fmt.Errorf("opening %s: %w", field, ErrFieldLocked)
	}

	sess := newSession(uuid.NewString(), owner, field, s.deps, s.logger)
	sess.load(ctx, limits)

	s.mu.Lock()
	now := s.clock.Now()
	s.sweepLocked(now)
	s.sessions[sess.id] = &sessionEntry{sess: sess, lastUsed: now}
	s.mu.Unlock()

	s.logger.Info("session opened", "session_id", sess.id, "owner_id", owner.OwnerID, "field", string(field))
	return sess, nil
}

// Get returns an open session and marks it as used.
func (s *Service) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.clock.Now()
	if s.expired(o, now) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	o.lastUsed = now
	return o.sess, nil
}

// Close forgets a session. It reports whether the session existed.
func (s *Service) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Len returns the number of open sessions, including expired ones not yet
// swept.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops every expired session and returns how many were dropped.
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.clock.Now())
}

func (s *Service) sweepLocked(now time.Time) int {
	n := 0
	for id, o := range s.sessions {
		if s.expired(o, now) {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Debug("expired idle sessions", "count", n)
	}
	return n
}

func (s *Service) expired(o *sessionEntry, now time.Time) bool {
	return now.Sub(o.lastUsed) > s.ttl
}

// Resume is one saved profile in the listing.
type Resume struct {
	Field    sections.Field  `json:"field"`
	Label    string          `json:"label"`
	Summary  string          `json:"summary"`
	Filename string          `json:"filename"`
	Document render.Document `json:"document"`
	Profile  profile.Profile `json:"profile"`
}

// Listing is the "my resumes" page: every saved profile plus the usage
// snapshot.
type Listing struct {
	Resumes []Resume            `json:"resumes"`
	Limits  quota.Limits        `json:"-"`
	Fields  []quota.FieldStatus `json:"fields"`
	Credits *int                `json:"tailor_credits"`
}

// ListResumes fetches the owner's saved profiles and limits concurrently.
// Each profile is previewed with its field's default sections. A failed
// limits fetch degrades to the fallback snapshot; a failed profile listing is
// an error.
func (s *Service) ListResumes(ctx context.Context, ownerID string) (Listing, error) {
	var (
		profiles []profile.Profile
		limits   quota.Limits
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profiles, err = s.deps.backend.ListProfiles(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		limits, err = s.Limits(gctx, ownerID)
		if err != nil {
			s.logger.Warn("loading limits failed", "owner_id", ownerID, "error", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Listing{}, fmt.Errorf("listing resumes: %w", err)
	}

	out := Listing{
		Resumes: make([]Resume, 0, len(profiles)),
		Limits:  limits,
		Fields:  limits.Picker(),
		Credits: copyInt(limits.TailorCredits),
	}
	for _, p := range profiles {
		p = profile.Normalize(p)
		out.Resumes = append(out.Resumes, Resume{
			Field:    p.ProfessionalField,
			Label:    sections.Label(p.ProfessionalField),
			Summary:  profile.Summary(p),
			Filename: export.Filename(p),
			Document: render.Render(p, sections.SectionsFor(p.ProfessionalField), s.deps.render),
			Profile:  p,
		})
	}
	return out, nil
}

// Downloaded is a generated document fetched to disk.
type Downloaded struct {
	Path string      `json:"path"`
	Info export.Info `json:"info"`
}

// Download fetches the document produced by an export, counts its pages,
// records the page count against the export and writes it to dir under the
// profile's download name.
func (s *Service) Download(ctx context.Context, sess *Session, res Result, dir string) (Downloaded, error) {
	data, err := export.Fetch(ctx, s.hc, res.Locator)
	if err != nil {
		return Downloaded{}, err
	}
	info, err := export.Inspect(data)
	if err != nil {
		return Downloaded{}, err
	}
	if s.deps.store != nil && res.ExportID != "" {
		if err := s.deps.store.SetExportPages(res.ExportID, info.Pages); err != nil {
			s.logger.Warn("recording page count failed", "export_id", res.ExportID, "error", err)
		}
	}
	path, err := export.Save(dir, export.Filename(sess.Profile()), data)
	if err != nil {
		return Downloaded{}, err
	}
	return Downloaded{Path: path, Info: info}, nil
}
