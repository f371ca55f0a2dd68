package api

import (
	"encoding/json"
	"net/http"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/auth"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/errs"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/execute"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/notes"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/obs"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/ratelimit"
)

// Version is the API version reported by the banner endpoint.
const Version = "1.0.0"

// Handler wraps the application services and provides HTTP handlers.
type Handler struct {
	appName  string
	notes    *notes.Service
	auth     *auth.Service
	authMW   *auth.Middleware
	limiter  *ratelimit.RateLimiter
	executor *execute.Client
}

// NewHandler creates a new API handler over the given services.
func NewHandler(appName string, notesService *notes.Service, authService *auth.Service, limiter *ratelimit.RateLimiter, executor *execute.Client) *Handler {
	return &Handler{
		appName:  appName,
		notes:    notesService,
		auth:     authService,
		authMW:   auth.NewMiddleware(authService),
		limiter:  limiter,
		executor: executor,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Banner)

	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/token", h.Token)
	mux.Handle("GET /auth/me", h.protected(h.Me))

	mux.Handle("GET /notes", h.protected(h.ListRoots))
	mux.Handle("GET /notes/search", h.protected(h.SearchNotes))
	mux.Handle("GET /notes/{id}", h.protected(h.GetNote))
	mux.Handle("GET /notes/{id}/children", h.protected(h.GetChildren))
	mux.Handle("POST /notes", h.protected(h.CreateNote))
	mux.Handle("PUT /notes/{id}", h.protected(h.UpdateNote))
	mux.Handle("DELETE /notes/{id}", h.protected(h.DeleteNote))

	mux.Handle("POST /execute", h.protected(h.Execute))
}

// protected wraps a handler with authentication and per-user rate limiting.
// Auth runs first so the limiter keys on a verified identity, not a header.
func (h *Handler) protected(fn http.HandlerFunc) http.Handler {
	limited := ratelimit.Middleware(h.limiter, func(r *http.Request) string {
		if user, ok := auth.UserFromContext(r.Context()); ok {
			return user.ID
		}
		return ""
	})(fn)
	return h.authMW.RequireAuth(limited)
}

// Banner handles GET / with a service liveness blurb.
func (h *Handler) Banner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": h.appName + " is running 🚀",
		"status":  "productive",
		"version": Version,
	})
}

// ListRoots handles GET /notes - returns the caller's top-level notes.
func (h *Handler) ListRoots(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	roots, err := h.notes.ListRoots(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roots)
}

// GetNote handles GET /notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	note, err := h.notes.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// GetChildren handles GET /notes/{id}/children.
func (h *Handler) GetChildren(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	children, err := h.notes.ListChildren(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// SearchNotes handles GET /notes/search?q=.
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	results, err := h.notes.Search(r.Context(), user.ID, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var params notes.CreateNoteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	note, err := h.notes.Create(r.Context(), user.ID, params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /notes/{id} with partial update semantics.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var params notes.UpdateNoteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	note, err := h.notes.Update(r.Context(), user.ID, r.PathValue("id"), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{id}, cascading for folders.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := h.notes.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

// Execute handles POST /execute by forwarding to the code execution backend.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req execute.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	result, err := h.executor.Execute(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}

// ErrorResponse is the JSON error body shape.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeServiceError maps a coded service error to its HTTP response.
// Internal failures are logged with the cause but reported with a
// sanitized message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)
	if status >= 500 {
		obs.From(r.Context()).Error("request_failed", "code", string(code), "err", err.Error())
	}
	writeError(w, status, errs.MessageOf(err))
}
