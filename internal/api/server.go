package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nomoreats/builder/internal/builder"
	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/render"
	"github.com/nomoreats/builder/internal/sections"
	"github.com/nomoreats/builder/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

const (
	defaultExportLimit = 20
	maxExportLimit     = 100
)

// ExportHistory lists recorded exports. Implemented by storage.Store.
type ExportHistory interface {
	ListExports(ownerID string, limit int) ([]storage.Export, error)
}

// Deps holds what the editing API needs.
type Deps struct {
	Service *builder.Service
	// History is optional; without it /exports returns an empty list.
	History ExportHistory
	Token   string
	// DefaultOwner is used when a request names no owner_id.
	DefaultOwner builder.Identity
	Logger       *slog.Logger
}

// NewHandler returns the editing API. Everything except /health requires the
// bearer token.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/fields", handleFields(deps))
		r.Get("/fields/{field}/lock", handleFieldLock(deps))
		r.Get("/resumes", handleResumes(deps))
		r.Get("/exports", handleExports(deps))

		r.Post("/sessions", handleOpenSession(deps))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(deps))
			r.Delete("/", handleCloseSession(deps))
			r.Get("/profile", handleGetProfile(deps))
			r.Put("/profile", handleReplaceProfile(deps))
			r.Post("/edits", handleEdit(deps))
			r.Get("/document", handleDocument(deps))
			r.Get("/preview.html", handlePreview(deps))
			r.Post("/sections", handleAddSection(deps))
			r.Delete("/sections/{section}", handleRemoveSection(deps))
			r.Post("/sections/{section}/collapse", handleCollapse(deps))
			r.Post("/zoom", handleZoom(deps))
			r.Post("/viewport", handleViewport(deps))
			r.Post("/generate", handleGenerate(deps))
			r.Post("/tailor", handleTailor(deps))
			r.Post("/tailor-mode", handleTailorMode(deps))
			r.Post("/editor", handleBackToEditor(deps))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleFields(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerID(w, r, deps)
		if !ok {
			return
		}
		limits, err := deps.Service.Limits(r.Context(), owner)
		if err != nil {
			deps.Logger.Warn("loading limits failed", "owner_id", owner, "error", err)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"fields":         limits.Picker(),
			"field_limit":    limits.FieldLimit,
			"tailor_credits": limits.TailorCredits,
		})
	}
}

func handleFieldLock(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerID(w, r, deps)
		if !ok {
			return
		}
		field := sections.ParseField(chi.URLParam(r, "field"))
		limits, err := deps.Service.Limits(r.Context(), owner)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "loading limits: %s", builder.Notice(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"field":       field,
			"locked":      limits.Locked(field),
			"used_fields": limits.UsedFields,
			"field_limit": limits.FieldLimit,
		})
	}
}

func handleResumes(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerID(w, r, deps)
		if !ok {
			return
		}
		listing, err := deps.Service.ListResumes(r.Context(), owner)
		if err != nil {
			writeError(w, deps, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}

func handleExports(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerID(w, r, deps)
		if !ok {
			return
		}
		limit := defaultExportLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit %q", v)
				return
			}
			limit = min(n, maxExportLimit)
		}
		exports := []storage.Export{}
		if deps.History != nil {
			var err error
			exports, err = deps.History.ListExports(owner, limit)
			if err != nil {
				deps.Logger.Error("listing exports failed", "owner_id", owner, "error", err)
				httpError(w, http.StatusInternalServerError, "server_error", "failed to list exports")
				return
			}
		}
		writeJSON(w, http.StatusOK, exports)
	}
}

type openRequest struct {
	OwnerID string `json:"owner_id"`
	Email   string `json:"email"`
	Field   string `json:"field"`
}

func handleOpenSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openRequest
		if !decodeBody(w, r, &req) {
			return
		}
		id := builder.Identity{OwnerID: req.OwnerID, Email: req.Email}
		if id.OwnerID == "" {
			id = deps.DefaultOwner
		}
		if id.OwnerID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "owner_id is required")
			return
		}
		sess, err := deps.Service.Open(r.Context(), id, sections.ParseField(req.Field))
		if err != nil {
			writeError(w, deps, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess.View())
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		writeJSON(w, http.StatusOK, sess.View())
	})
}

func handleCloseSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Service.Close(chi.URLParam(r, "id")) {
			writeError(w, deps, builder.ErrSessionNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		writeJSON(w, http.StatusOK, sess.Profile())
	})
}

func handleReplaceProfile(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		var p profile.Profile
		if !decodeBody(w, r, &p) {
			return
		}
		sess.Replace(p)
		writeJSON(w, http.StatusOK, sess.View())
	})
}

func handleEdit(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		var e builder.Edit
		if !decodeBody(w, r, &e) {
			return
		}
		if err := sess.Edit(e); err != nil {
			writeError(w, deps, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.View())
	})
}

func handleDocument(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		doc := sess.Document()
		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			render.WriteText(w, doc)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	})
}

func handlePreview(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.WriteHTML(w, sess.Document(), sess.Viewport()); err != nil {
			deps.Logger.Error("writing preview failed", "session_id", sess.ID(), "error", err)
		}
	})
}

type sectionRequest struct {
	ID string `json:"id"`
}

func handleAddSection(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		var req sectionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		id, ok := sections.ParseID(req.ID)
		if !ok {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown section %q", req.ID)
			return
		}
		sess.AddSection(id)
		writeJSON(w, http.StatusOK, sess.View())
	})
}

func handleRemoveSection(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		id, ok := sections.ParseID(chi.URLParam(r, "section"))
		if !ok {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown section %q", chi.URLParam(r, "section"))
			return
		}
		sess.RemoveSection(id)
		writeJSON(w, http.StatusOK, sess.View())
	})
}

func handleCollapse(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		id, ok := sections.ParseID(chi.URLParam(r, "section"))
		if !ok {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown section %q", chi.URLParam(r, "section"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"section":   id,
			"collapsed": sess.ToggleCollapsed(id),
		})
	})
}

type zoomResponse struct {
	Label      string  `json:"label"`
	Fit        bool    `json:"fit"`
	Scale      float64 `json:"scale"`
	PageHeight float64 `json:"page_height"`
}

func viewportResponse(vp render.Viewport) zoomResponse {
	return zoomResponse{
		Label:      vp.Label(),
		Fit:        vp.Fit(),
		Scale:      vp.Scale(),
		PageHeight: vp.PageHeight(),
	}
}

func handleZoom(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		var req struct {
			Action string `json:"action"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if _, err := sess.Zoom(req.Action); err != nil {
			writeError(w, deps, err)
			return
		}
		writeJSON(w, http.StatusOK, viewportResponse(sess.Viewport()))
	})
}

func handleViewport(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		var req struct {
			ContainerWidth int `json:"container_width"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.ContainerWidth <= 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "container_width must be positive")
			return
		}
		sess.SetContainerWidth(req.ContainerWidth)
		writeJSON(w, http.StatusOK, viewportResponse(sess.Viewport()))
	})
}

func handleGenerate(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		res, err := sess.Generate(r.Context())
		if err != nil {
			writeError(w, deps, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func handleTailor(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		var req struct {
			JobDescription string `json:"job_description"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := sess.Tailor(r.Context(), req.JobDescription)
		if err != nil {
			writeError(w, deps, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func handleTailorMode(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		sess.SetTailorMode(req.Enabled)
		writeJSON(w, http.StatusOK, sess.View())
	})
}

func handleBackToEditor(deps Deps) http.HandlerFunc {
	return withSession(deps, func(w http.ResponseWriter, r *http.Request, sess *builder.Session) {
		sess.BackToEditor()
		writeJSON(w, http.StatusOK, sess.View())
	})
}

func withSession(deps Deps, h func(http.ResponseWriter, *http.Request, *builder.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := deps.Service.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, deps, err)
			return
		}
		h(w, r, sess)
	}
}

func ownerID(w http.ResponseWriter, r *http.Request, deps Deps) (string, bool) {
	if id := r.URL.Query().Get("owner_id"); id != "" {
		return id, true
	}
	if deps.DefaultOwner.OwnerID != "" {
		return deps.DefaultOwner.OwnerID, true
	}
	httpError(w, http.StatusBadRequest, "invalid_request_error", "owner_id is required")
	return "", false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

// errorStatus maps a builder error onto an HTTP status and error type.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, builder.ErrSessionNotFound):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, builder.ErrFieldLocked):
		return http.StatusForbidden, "permission_error"
	case errors.Is(err, builder.ErrInvalidEdit):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, builder.ErrNameRequired), errors.Is(err, builder.ErrJobDescriptionRequired):
		return http.StatusUnprocessableEntity, "invalid_request_error"
	case errors.Is(err, builder.ErrNoCredits):
		return http.StatusPaymentRequired, "insufficient_credits"
	case errors.Is(err, builder.ErrBusy):
		return http.StatusConflict, "conflict_error"
	}
	// Service failures and anything unrecognized come from the backend.
	return http.StatusBadGateway, "api_error"
}

func writeError(w http.ResponseWriter, deps Deps, err error) {
	code, errType := errorStatus(err)
	if code >= 500 {
		deps.Logger.Warn("request failed", "status", code, "error", err)
	}
	httpError(w, code, errType, "%s", builder.Notice(err))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
