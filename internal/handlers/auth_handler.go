package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"cybercafe/internal/security"
	"cybercafe/internal/service"
	"cybercafe/internal/validation"
)

// AuthHandler handles operator sign-in and sign-out
type AuthHandler struct {
	authService *service.AuthService
	renderer    *Renderer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, renderer *Renderer) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		renderer:    renderer,
	}
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if _, err := h.authService.ValidateSession(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	h.renderer.Render(w, http.StatusOK, "login.tmpl", LoginViewData{
		Page: Page{Title: "Log in"},
	})
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	form := validation.LoginForm{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	failed := func() {
		h.renderer.Render(w, http.StatusUnauthorized, "login.tmpl", LoginViewData{
			Page:     Page{Title: "Log in"},
			Error:    LoginFailedMessage,
			Username: form.Username,
		})
	}

	if err := form.Validate(); err != nil {
		failed()
		return
	}

	session, operator, err := h.authService.Login(r.Context(), form.Username, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		log.Info().Str("username", form.Username).Msg("login failed")
		failed()
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to log in", err)
		return
	}

	log.Info().Str("username", operator.Username).Msg("operator logged in")
	http.SetCookie(w, security.SessionCookie(r, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the operator session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := GetSessionIDFromContext(r.Context()); sessionID != "" {
		if err := h.authService.Logout(r.Context(), sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete operator session")
		}
	}

	http.SetCookie(w, security.ClearSessionCookie(r))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
