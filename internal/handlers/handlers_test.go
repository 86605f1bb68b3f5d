package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cybercafe/internal/billing"
	"cybercafe/internal/database"
	"cybercafe/internal/metrics"
	"cybercafe/internal/repository"
	"cybercafe/internal/security"
	"cybercafe/internal/service"
	"cybercafe/internal/templates"
)

const (
	testUsername = "desk"
	testPassword = "counter-secret"
)

type testApp struct {
	handler  http.Handler
	csrf     *security.CSRF
	students *service.StudentService
	cookie   *http.Cookie
}

func newTestApp(t *testing.T, loginRate int) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "cafe.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tmpl, err := templates.Load(time.UTC)
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	studentRepo := repository.NewStudentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	sessionRepo := repository.NewUsageSessionRepository(db)
	plan := billing.DefaultPlan()
	m := metrics.New()

	authService := service.NewAuthService(repository.NewOperatorRepository(db), time.Hour, m)
	studentService := service.NewStudentService(studentRepo, paymentRepo, sessionRepo, plan, time.UTC, m)
	paymentService := service.NewPaymentService(db, studentRepo, paymentRepo, plan, time.UTC, m)
	usageService := service.NewUsageService(db, studentRepo, sessionRepo, plan, m)

	if _, err := authService.CreateOperator(ctx, testUsername, testPassword); err != nil {
		t.Fatalf("Failed to create operator: %v", err)
	}

	csrf := security.NewCSRF("test-secret")
	renderer := NewRenderer(tmpl, csrf)
	router := &Router{
		Middleware: NewMiddleware(authService, csrf, security.NewRateLimiter(loginRate, time.Minute), nil, m),
		Auth:       NewAuthHandler(authService, renderer),
		Sessions:   NewSessionHandler(usageService, renderer),
		Students:   NewStudentHandler(studentService, paymentService, usageService, renderer),
		Payments:   NewPaymentHandler(paymentService, studentService, renderer),
		Metrics:    m.Handler(),
	}

	return &testApp{
		handler:  router.Handler(),
		csrf:     csrf,
		students: studentService,
	}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits a form, adding the operator's CSRF token when signed in
func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if a.cookie != nil && form.Get(security.CSRFFieldName) == "" {
		form.Set(security.CSRFFieldName, a.csrf.Token(a.cookie.Value))
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *testApp) login(t *testing.T) {
	t.Helper()
	rec := a.post("/login", url.Values{"username": {testUsername}, "password": {testPassword}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			a.cookie = c
		}
	}
	if a.cookie == nil {
		t.Fatal("login did not set a session cookie")
	}
}

func (a *testApp) addStudent(t *testing.T, first, last, idNumber string) {
	t.Helper()
	rec := a.post("/students", url.Values{
		"first_name":   {first},
		"last_name":    {last},
		"id_number":    {idNumber},
		"phone_number": {"0700000000"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add student status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (body %q)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func assertContains(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("body does not contain %q:\n%s", want, rec.Body.String())
	}
}

func TestPagesRequireLogin(t *testing.T) {
	app := newTestApp(t, 10)

	for _, path := range []string{"/", "/sessions", "/students", "/students/new", "/payments", "/payments/new"} {
		t.Run(path, func(t *testing.T) {
			assertRedirect(t, app.get(path), "/login")
		})
	}
}

func TestLogin(t *testing.T) {
	app := newTestApp(t, 10)

	t.Run("wrong password", func(t *testing.T) {
		rec := app.post("/login", url.Values{"username": {testUsername}, "password": {"nope"}})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		assertContains(t, rec, LoginFailedMessage)
	})

	t.Run("empty form", func(t *testing.T) {
		rec := app.post("/login", url.Values{})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		assertContains(t, rec, LoginFailedMessage)
	})

	t.Run("success", func(t *testing.T) {
		app.login(t)
		if !app.cookie.HttpOnly {
			t.Error("session cookie should be HttpOnly")
		}
		assertRedirect(t, app.get("/login"), "/")
	})

	t.Run("logout clears the session", func(t *testing.T) {
		assertRedirect(t, app.post("/logout", nil), "/login")
		assertRedirect(t, app.get("/"), "/login")
	})
}

func TestLoginRateLimit(t *testing.T) {
	app := newTestApp(t, 2)
	form := url.Values{"username": {testUsername}, "password": {"nope"}}

	for i := 0; i < 2; i++ {
		if rec := app.post("/login", form); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, rec.Code)
		}
	}
	if rec := app.post("/login", form); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestLoginRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	app := newTestApp(t, 2)
	form := url.Values{"username": {testUsername}, "password": {"nope"}}

	attempt := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", forwarded)
		return app.do(req).Code
	}

	attempt("198.51.100.1")
	attempt("198.51.100.2")
	if code := attempt("198.51.100.3"); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 when rotating X-Forwarded-For", code)
	}
}

func TestActionsRequireCSRFToken(t *testing.T) {
	app := newTestApp(t, 10)
	app.login(t)

	rec := app.post("/students", url.Values{
		security.CSRFFieldName: {"forged"},
		"first_name":           {"Ada"},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestStudentPages(t *testing.T) {
	app := newTestApp(t, 10)
	app.login(t)
	app.addStudent(t, "Ada", "Lovelace", "A100")

	t.Run("home lists the student", func(t *testing.T) {
		rec := app.get("/")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		assertContains(t, rec, "Ada Lovelace")
	})

	t.Run("duplicate id number re-renders the form", func(t *testing.T) {
		rec := app.post("/students", url.Values{
			"first_name":   {"Other"},
			"last_name":    {"Person"},
			"id_number":    {"A100"},
			"phone_number": {"0711111111"},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
		assertContains(t, rec, "already exists")
		assertContains(t, rec, `value="Other"`)
	})

	t.Run("invalid phone number", func(t *testing.T) {
		rec := app.post("/students", url.Values{
			"first_name":   {"Bad"},
			"last_name":    {"Phone"},
			"id_number":    {"B200"},
			"phone_number": {"call me"},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("edit renames", func(t *testing.T) {
		rec := app.post("/students/A100/edit", url.Values{
			"first_name":   {"Augusta"},
			"last_name":    {"Lovelace"},
			"id_number":    {"A101"},
			"phone_number": {"0700000000"},
		})
		assertRedirect(t, rec, "/students/A101")
		assertContains(t, app.get("/students/A101"), "Augusta Lovelace")
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		if rec := app.get("/students/A100"); rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if rec := app.post("/students/missing/sessions/start", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("start status = %d, want 404", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		assertRedirect(t, app.post("/students/A101/delete", nil), "/students")
		if _, err := app.students.Get(context.Background(), "A101"); err == nil {
			t.Fatal("student should be gone after delete")
		}
	})
}

func TestSessionActions(t *testing.T) {
	app := newTestApp(t, 10)
	app.login(t)
	app.addStudent(t, "Alan", "Turing", "T200")

	assertRedirect(t, app.post("/students/T200/sessions/start", nil), "/")
	// Starting again is reported and ignored
	assertRedirect(t, app.post("/students/T200/sessions/start", nil), "/")

	assertContains(t, app.get("/students/T200"), "<strong>open</strong>")

	rec := app.get("/sessions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, "Alan Turing")
	assertContains(t, rec, "hrs")

	assertRedirect(t, app.post("/students/T200/sessions/end", nil), "/")
	// Ending without an open session does nothing
	assertRedirect(t, app.post("/students/T200/sessions/end", nil), "/")

	detail := app.get("/students/T200")
	if detail.Code != http.StatusOK {
		t.Fatalf("detail status = %d", detail.Code)
	}
	if got := strings.Count(detail.Body.String(), "00 hrs 00 mins"); got != 1 {
		t.Errorf("expected one recorded session on the detail page, found %d", got)
	}
	if strings.Contains(detail.Body.String(), "<strong>open</strong>") {
		t.Error("ended session should not be shown as open")
	}
}

func TestPaymentPages(t *testing.T) {
	app := newTestApp(t, 10)
	app.login(t)
	app.addStudent(t, "Grace", "Hopper", "G42")

	assertContains(t, app.get("/payments"), NoneFullyPaidMessage)

	t.Run("form preselects the student", func(t *testing.T) {
		assertContains(t, app.get("/payments/new?id_number=G42"), `value="G42" selected`)
	})

	t.Run("invalid amount re-renders the form", func(t *testing.T) {
		rec := app.post("/payments", url.Values{"id_number": {"G42"}, "amount": {"-5"}})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("amount beyond storage range re-renders the form", func(t *testing.T) {
		rec := app.post("/payments", url.Values{"id_number": {"G42"}, "amount": {"1e20"}})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
		assertContains(t, rec, "99999999.99")
	})

	t.Run("unknown student re-renders the form", func(t *testing.T) {
		rec := app.post("/payments", url.Values{"id_number": {"nobody"}, "amount": {"100"}})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("full payment lists the student as paid", func(t *testing.T) {
		assertRedirect(t, app.post("/payments", url.Values{"id_number": {"G42"}, "amount": {"3000"}}), "/payments")

		rec := app.get("/payments")
		assertContains(t, rec, "Grace Hopper</a>: 3000.00")
		if strings.Contains(rec.Body.String(), NoneFullyPaidMessage) {
			t.Error("fully paid notice should not show once someone paid")
		}
		assertContains(t, app.get("/students/G42/payments"), "3000.00")
	})

	t.Run("delete unknown payment", func(t *testing.T) {
		if rec := app.post("/payments/999/delete", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if rec := app.post("/payments/abc/delete", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, 10)

	if rec := app.get("/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	rec := app.get("/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	assertContains(t, rec, "cybercafe_")
}
