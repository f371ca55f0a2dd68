package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/auth"
)

// RegisterRequest is the POST /auth/register body.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// TokenResponse is the POST /auth/token success body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Token handles POST /auth/token. Credentials arrive either as an OAuth2
// password form (username/password fields) or as a JSON body with email and
// password keys.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	email, password, ok := credentialsFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}
	token, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

func credentialsFromRequest(r *http.Request) (email, password string, ok bool) {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var body struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", "", false
		}
		email = body.Email
		if email == "" {
			email = body.Username
		}
		password = body.Password
	} else {
		if err := r.ParseForm(); err != nil {
			return "", "", false
		}
		email = r.PostFormValue("username")
		password = r.PostFormValue("password")
	}
	if email == "" || password == "" {
		return "", "", false
	}
	return email, password, true
}
