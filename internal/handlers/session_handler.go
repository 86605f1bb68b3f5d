package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"cybercafe/internal/models"
	"cybercafe/internal/service"
)

// SessionHandler serves the home page, the active sessions page and the
// check-in/check-out actions
type SessionHandler struct {
	usageService *service.UsageService
	renderer     *Renderer
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(usageService *service.UsageService, renderer *Renderer) *SessionHandler {
	return &SessionHandler{
		usageService: usageService,
		renderer:     renderer,
	}
}

func (h *SessionHandler) studentRows(students []models.StudentWithSessions, page Page) []StudentRow {
	now := h.usageService.Now()
	plan := h.usageService.Plan()

	rows := make([]StudentRow, 0, len(students))
	for _, s := range students {
		rows = append(rows, StudentRow{
			Student: s.Student,
			Active:  newSessionView(s.ActiveSession, now, plan),
			Last:    newSessionView(s.LastSession, now, plan),
			Actions: Actions{IDNumber: s.IDNumber, CSRFToken: page.CSRFToken},
		})
	}
	return rows
}

// Home lists every student with their current and last session
func (h *SessionHandler) Home(w http.ResponseWriter, r *http.Request) {
	students, err := h.usageService.StudentsWithSessions(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to load students", err)
		return
	}

	page := h.renderer.Page(r, "Home")
	h.renderer.Render(w, http.StatusOK, "home.tmpl", HomeViewData{
		Page: page,
		Rows: h.studentRows(students, page),
	})
}

// ActiveSessions lists open sessions with live duration and amount due
func (h *SessionHandler) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	active, err := h.usageService.ActiveSessions(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to load active sessions", err)
		return
	}
	students, err := h.usageService.StudentsWithSessions(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to load students", err)
		return
	}

	page := h.renderer.Page(r, "Active sessions")
	now := h.usageService.Now()
	plan := h.usageService.Plan()

	data := ActiveSessionsViewData{
		Page: page,
		Rows: h.studentRows(students, page),
	}
	for i := range active {
		data.Active = append(data.Active, ActiveSessionRow{
			Student: active[i].Student,
			Session: newSessionView(&active[i].UsageSession, now, plan),
			Actions: Actions{IDNumber: active[i].Student.IDNumber, CSRFToken: page.CSRFToken},
		})
	}

	h.renderer.Render(w, http.StatusOK, "sessions.tmpl", data)
}

// Start checks a student in and returns to the home page
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	idNumber := r.PathValue("idNumber")

	_, err := h.usageService.StartSession(r.Context(), idNumber)
	if errors.Is(err, service.ErrSessionAlreadyOpen) {
		log.Info().Str("id_number", idNumber).Msg("session already open, nothing started")
		err = nil
	}
	if err != nil {
		respondWithLookupError(w, err, ErrStudentNotFound, "failed to start session")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// End checks a student out and returns to the home page
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	idNumber := r.PathValue("idNumber")

	if _, err := h.usageService.EndSession(r.Context(), idNumber); err != nil {
		respondWithLookupError(w, err, ErrStudentNotFound, "failed to end session")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
