package handlers

import (
	"net/http"
)

// Router groups the handlers served by the desk
type Router struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Sessions   *SessionHandler
	Students   *StudentHandler
	Payments   *PaymentHandler
	Metrics    http.Handler
}

// Handler registers every route on a new ServeMux
func (rt *Router) Handler() http.Handler {
	mw := rt.Middleware
	page := mw.RequireAuth
	action := func(next http.HandlerFunc) http.HandlerFunc {
		return mw.RequireAuth(mw.CSRFProtect(next))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	// Public routes
	mux.HandleFunc("GET /login", rt.Auth.ShowLogin)
	mux.HandleFunc("POST /login", mw.RateLimit(rt.Auth.Login))
	mux.HandleFunc("POST /logout", action(rt.Auth.Logout))

	// Sessions
	mux.HandleFunc("GET /{$}", page(rt.Sessions.Home))
	mux.HandleFunc("GET /sessions", page(rt.Sessions.ActiveSessions))
	mux.HandleFunc("POST /students/{idNumber}/sessions/start", action(rt.Sessions.Start))
	mux.HandleFunc("POST /students/{idNumber}/sessions/end", action(rt.Sessions.End))

	// Students
	mux.HandleFunc("GET /students", page(rt.Students.List))
	mux.HandleFunc("GET /students/new", page(rt.Students.New))
	mux.HandleFunc("POST /students", action(rt.Students.Create))
	mux.HandleFunc("GET /students/{idNumber}", page(rt.Students.Detail))
	mux.HandleFunc("GET /students/{idNumber}/edit", page(rt.Students.Edit))
	mux.HandleFunc("POST /students/{idNumber}/edit", action(rt.Students.Update))
	mux.HandleFunc("POST /students/{idNumber}/delete", action(rt.Students.Delete))
	mux.HandleFunc("GET /students/{idNumber}/payments", page(rt.Students.Payments))

	// Payments
	mux.HandleFunc("GET /payments", page(rt.Payments.List))
	mux.HandleFunc("GET /payments/new", page(rt.Payments.New))
	mux.HandleFunc("POST /payments", action(rt.Payments.Create))
	mux.HandleFunc("POST /payments/{id}/delete", action(rt.Payments.Delete))

	return mux
}
