package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/enrich"
	"github.com/minicrm/minicrm/internal/middleware"
	"github.com/minicrm/minicrm/internal/model"
	"github.com/minicrm/minicrm/internal/repository"
	"github.com/minicrm/minicrm/internal/service"
	"github.com/minicrm/minicrm/internal/web"
)

// testApp wires the full router against a temp-dir store, mirroring the
// production wiring in cmd/api.
type testApp struct {
	router   *chi.Mux
	repo     *repository.Repository
	users    *service.UserService
	dossiers *service.DossierService
	sessions *auth.Sessions
}

func newTestApp(t *testing.T, lookupBaseURL string) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := repository.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(repo.Close)

	sessions := auth.NewSessions("test-secret", time.Hour, false)
	users := service.NewUserService(repo, logger)
	dossiers := service.NewDossierService(repo, logger)
	lookup := enrich.NewClient(lookupBaseURL, "", time.Second)

	renderer, err := web.NewRenderer(logger)
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	authHandler := NewAuthHandler(users, sessions, renderer, logger)
	userHandler := NewUserHandler(users, renderer, logger)
	dossierHandler := NewDossierHandler(dossiers, renderer, logger)
	lookupHandler := NewLookupHandler(lookup, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Session(middleware.SessionConfig{
		Logger:     logger,
		Sessions:   sessions,
		Repository: repo,
	}))

	r.Get("/", authHandler.Home)
	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Get("/dashboard", authHandler.Dashboard)
		r.Get("/dossiers", dossierHandler.ListMine)
		r.Get("/dossiers/new", dossierHandler.CreateForm)
		r.Post("/dossiers/new", dossierHandler.Create)
		r.Get("/api/lookup_siret", lookupHandler.LookupSiret)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Get("/admin/users", userHandler.List)
		r.Post("/admin/users", userHandler.Create)
		r.Get("/admin/dossiers", dossierHandler.ListAll)
	})

	return &testApp{
		router:   r,
		repo:     repo,
		users:    users,
		dossiers: dossiers,
		sessions: sessions,
	}
}

func (a *testApp) createUser(t *testing.T, email, password string, role model.Role) *model.User {
	t.Helper()

	user, err := a.users.Create(context.Background(), service.CreateUserInput{
		Email:    email,
		Name:     "Test User",
		Password: password,
		Role:     string(role),
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (a *testApp) sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()

	cookie, err := a.sessions.Issue(userID)
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}
	return cookie
}

func (a *testApp) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHome_Redirects(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")

	rec := app.get("/", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("anonymous / should redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	user := app.createUser(t, "u@example.com", "pass", model.RoleUser)
	rec = app.get("/", app.sessionCookie(t, user.ID))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Errorf("authenticated / should redirect to /dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLogin_Success(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	app.createUser(t, "alice@example.com", "s3cret", model.RoleUser)

	rec := app.postForm("/login", url.Values{
		"email":    {"Alice@Example.COM"},
		"password": {"s3cret"},
	}, nil)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	session := findCookie(rec, auth.SessionCookie)
	if session == nil || session.Value == "" {
		t.Fatal("successful login should set a session cookie")
	}

	// The issued cookie grants access to protected pages.
	rec = app.get("/dashboard", session)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on /dashboard with session, got %d", rec.Code)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	app.createUser(t, "alice@example.com", "s3cret", model.RoleUser)

	cases := []url.Values{
		{"email": {"alice@example.com"}, "password": {"wrong"}},
		{"email": {"nobody@example.com"}, "password": {"s3cret"}},
	}

	for _, form := range cases {
		rec := app.postForm("/login", form, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("failed login should re-render the form, got %d", rec.Code)
		}
		// Same generic notice for unknown email and wrong password.
		if !strings.Contains(rec.Body.String(), "Invalid credentials.") {
			t.Error("expected the generic invalid-credentials notice")
		}
		if findCookie(rec, auth.SessionCookie) != nil {
			t.Error("failed login must not set a session cookie")
		}
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	user := app.createUser(t, "u@example.com", "pass", model.RoleUser)

	rec := app.get("/logout", app.sessionCookie(t, user.ID))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	session := findCookie(rec, auth.SessionCookie)
	if session == nil || session.MaxAge != -1 {
		t.Error("logout should expire the session cookie")
	}
}

func TestRequireAuth_RedirectsAnonymous(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")

	for _, path := range []string{"/dashboard", "/dossiers", "/dossiers/new", "/api/lookup_siret"} {
		rec := app.get(path, nil)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Errorf("%s: expected redirect to /login, got %d %q", path, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestRequireAdmin_RedirectsStandardUser(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")

	admin := app.createUser(t, "admin@example.com", "admin123", model.RoleAdmin)
	user := app.createUser(t, "u@example.com", "pass", model.RoleUser)

	// Give the admin view something that must never leak.
	if _, err := app.dossiers.Create(context.Background(), service.CreateDossierInput{
		OwnerID: admin.ID,
		Title:   "confidential-admin-dossier",
	}); err != nil {
		t.Fatalf("failed to seed dossier: %v", err)
	}

	cookie := app.sessionCookie(t, user.ID)
	for _, path := range []string{"/admin/users", "/admin/dossiers"} {
		rec := app.get(path, cookie)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
			t.Errorf("%s: expected redirect to /dashboard, got %d %q", path, rec.Code, rec.Header().Get("Location"))
		}
		if strings.Contains(rec.Body.String(), "confidential-admin-dossier") {
			t.Errorf("%s: gated data leaked to a standard user", path)
		}
	}

	// The administrator sees the listing.
	rec := app.get("/admin/dossiers", app.sessionCookie(t, admin.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin should reach /admin/dossiers, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "confidential-admin-dossier") {
		t.Error("admin listing should include the seeded dossier")
	}
}

func TestAdminUsers_Create(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	admin := app.createUser(t, "admin@example.com", "admin123", model.RoleAdmin)
	cookie := app.sessionCookie(t, admin.ID)

	rec := app.postForm("/admin/users", url.Values{
		"email":    {"new@example.com"},
		"name":     {"New User"},
		"role":     {"user"},
		"password": {"pass"},
	}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after creation, got %d", rec.Code)
	}

	if _, err := app.users.Authenticate(context.Background(), "new@example.com", "pass"); err != nil {
		t.Errorf("created user should authenticate: %v", err)
	}

	// Missing fields and duplicates recover with a notice, never an error page.
	for _, form := range []url.Values{
		{"email": {"x@example.com"}, "name": {""}, "password": {"p"}},
		{"email": {"new@example.com"}, "name": {"Dup"}, "password": {"p"}},
	} {
		rec := app.postForm("/admin/users", form, cookie)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("expected redirect with notice, got %d", rec.Code)
		}
	}
}

func TestDossierCreate(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	user := app.createUser(t, "u@example.com", "pass", model.RoleUser)
	cookie := app.sessionCookie(t, user.ID)

	// Empty title re-renders the form with a notice.
	rec := app.postForm("/dossiers/new", url.Values{"title": {"   "}}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("empty title should re-render the form, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Title is required.") {
		t.Error("expected the title-required notice")
	}

	rec = app.postForm("/dossiers/new", url.Values{
		"title":        {"Coverage audit"},
		"description":  {"Annual review"},
		"company_name": {"DURAND SAS"},
		"siret":        {"552 032 534 00041"},
		"billing_city": {"Paris"},
	}, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dossiers" {
		t.Fatalf("expected redirect to /dossiers, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = app.get("/dossiers", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on /dossiers, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Coverage audit") || !strings.Contains(rec.Body.String(), "DURAND SAS") {
		t.Error("created dossier should appear in the owner listing")
	}
}

func TestLookupSiret(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "552032534":
			_, _ = w.Write([]byte(`{"results":[{"nom_complet":"DURAND CONSEIL","siege":{"adresse":"12 RUE DE LA PAIX","code_postal":"75002","libelle_commune":"PARIS"},"dirigeants":[{"prenoms":"Anne","nom":"Durand","qualite":"Présidente"}]}]}`))
		case "444444444":
			_, _ = w.Write([]byte(`{"results":[{"nom_complet":"MINIMAL SARL"}]}`))
		case "999999999":
			_, _ = w.Write([]byte(`{"results":[]}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer upstream.Close()

	app := newTestApp(t, upstream.URL)
	user := app.createUser(t, "u@example.com", "pass", model.RoleUser)
	cookie := app.sessionCookie(t, user.ID)

	cases := []struct {
		name       string
		siret      string
		wantStatus int
		wantOK     bool
	}{
		{"valid identifier", "552 032 534 00041", http.StatusOK, true},
		{"too short", "12345678", http.StatusBadRequest, false},
		{"unknown company", "99999999900018", http.StatusNotFound, false},
		{"upstream failure", "111111111", http.StatusBadGateway, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.get("/api/lookup_siret?siret="+url.QueryEscape(tc.siret), cookie)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}

			body := rec.Body.String()
			if tc.wantOK {
				if !strings.Contains(body, `"ok":true`) || !strings.Contains(body, "DURAND CONSEIL") {
					t.Errorf("unexpected success payload: %s", body)
				}
			} else {
				if !strings.Contains(body, `"ok":false`) || !strings.Contains(body, `"error"`) {
					t.Errorf("unexpected failure payload: %s", body)
				}
			}
		})
	}

	// A match with no officers or address still carries every data key as an
	// empty string; the form assigns them to inputs unconditionally.
	t.Run("partial data keeps all keys", func(t *testing.T) {
		rec := app.get("/api/lookup_siret?siret=444444444", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := rec.Body.String()
		if !strings.Contains(body, `"company_name":"MINIMAL SARL"`) {
			t.Errorf("missing company name: %s", body)
		}
		for _, key := range []string{
			"signer_first_name", "signer_last_name", "signer_role",
			"billing_address", "billing_zip", "billing_city",
		} {
			if !strings.Contains(body, `"`+key+`":""`) {
				t.Errorf("expected %s as an empty string, body: %s", key, body)
			}
		}
	})
}
