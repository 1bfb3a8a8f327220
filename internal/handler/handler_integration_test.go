//go:build integration

package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/smartnotes/smartnotes/internal/cache"
	"github.com/smartnotes/smartnotes/internal/metrics"
	"github.com/smartnotes/smartnotes/internal/middleware"
	"github.com/smartnotes/smartnotes/internal/repository"
	"github.com/smartnotes/smartnotes/internal/service"
	"github.com/smartnotes/smartnotes/internal/testutil"
	"github.com/smartnotes/smartnotes/internal/web"
)

type integrationEnv struct {
	server *httptest.Server
	repo   *repository.Repository
	users  *service.UserService
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()
	ctx := context.Background()

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	if err := repository.Migrate(ctx, dbURL, nil); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("repository.New() error = %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("AcquireDBLock() error = %v", err)
	}
	t.Cleanup(func() { _ = unlock() })
	if err := testutil.TruncateAll(ctx, repo.Pool()); err != nil {
		t.Fatal(err)
	}

	c, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatal(err)
	}

	logger := discardLogger()
	rec := metrics.NewInMemory()
	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}

	notes := service.NewNoteService(repo, c, nil, logger, rec, service.NoteServiceConfig{})
	users := service.NewUserService(repo, c, logger, rec, service.UserServiceConfig{HashParams: fastHash})
	h := New(renderer, notes, users, logger, Config{})

	srv := httptest.NewServer(NewRouter(RouterConfig{
		Handler:            h,
		Health:             NewHealthHandler(logger, Check{Name: "postgres", Checker: repo}, Check{Name: "redis", Checker: c}),
		Sessions:           users,
		Limiter:            c,
		Recorder:           rec,
		Logger:             logger,
		IsDevelopment:      true,
		RateLimitEnabled:   true,
		RateLimitPerMinute: 60,
		RateLimitBurst:     20,
	}))
	t.Cleanup(srv.Close)

	return &integrationEnv{server: srv, repo: repo, users: users}
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (e *integrationEnv) newBrowser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &browser{
		t:    t,
		base: e.server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	if err != nil {
		b.t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (b *browser) post(path string, values url.Values) *http.Response {
	b.t.Helper()
	if values == nil {
		values = url.Values{}
	}
	values.Set(middleware.CSRFFormField, b.csrfToken())

	resp, err := b.client.PostForm(b.base+path, values)
	if err != nil {
		b.t.Fatalf("POST %s: %v", path, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func (b *browser) csrfToken() string {
	u, _ := url.Parse(b.base)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == middleware.DefaultCSRFCookieName {
			return c.Value
		}
	}
	b.get("/")
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == middleware.DefaultCSRFCookieName {
			return c.Value
		}
	}
	b.t.Fatal("no csrf cookie issued")
	return ""
}

func TestIntegrationNotesFlow(t *testing.T) {
	env := newIntegrationEnv(t)
	alice := env.newBrowser(t)

	resp := alice.post("/signup", url.Values{
		"username":  {"alice"},
		"password1": {"correct-horse-battery"},
		"password2": {"correct-horse-battery"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}

	resp = alice.post("/login", url.Values{
		"username": {"alice"},
		"password": {"correct-horse-battery"},
		"next":     {"/notes"},
	})
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/notes" {
		t.Fatalf("login status = %d, Location %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp = alice.post("/notes/new", url.Values{"title": {"Django Signals"}, "text": {"post_save hooks"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	_, body := alice.get("/notes")
	if !strings.Contains(body, "django signals") {
		t.Fatalf("list missing note: %s", body)
	}

	user, err := env.repo.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	notes, err := env.repo.ListNotesByOwner(context.Background(), user.ID, 10)
	if err != nil || len(notes) != 1 {
		t.Fatalf("ListNotesByOwner = %v, %v", notes, err)
	}
	noteID := notes[0].ID

	anon := env.newBrowser(t)
	if resp, _ := anon.get("/notes/public/" + noteID); resp.StatusCode != http.StatusNotFound {
		t.Errorf("private note public status = %d, want 404", resp.StatusCode)
	}

	resp = alice.post("/notes/"+noteID+"/visibility", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}

	resp, body = anon.get("/notes/public/" + noteID)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "post_save hooks") {
		t.Errorf("public note status = %d", resp.StatusCode)
	}

	resp = alice.post("/logout", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	if resp, _ := alice.get("/notes"); resp.StatusCode != http.StatusFound {
		t.Errorf("list after logout = %d, want redirect", resp.StatusCode)
	}
}

func TestIntegrationDeleteUserCascades(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	if _, err := env.users.CreateStaffUser(ctx, "root", "correct-horse-battery"); err != nil {
		t.Fatal(err)
	}
	bob := env.newBrowser(t)
	bob.post("/signup", url.Values{
		"username":  {"bob"},
		"password1": {"correct-horse-battery"},
		"password2": {"correct-horse-battery"},
	})
	bob.post("/login", url.Values{"username": {"bob"}, "password": {"correct-horse-battery"}})
	bob.post("/notes/new", url.Values{"title": {"django orm"}, "text": {"select_related"}})

	user, err := env.repo.GetUserByUsername(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}

	admin := env.newBrowser(t)
	admin.post("/admin/login", url.Values{"username": {"root"}, "password": {"correct-horse-battery"}})
	resp := admin.post("/admin/users/"+user.ID+"/delete", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("admin delete status = %d", resp.StatusCode)
	}

	all, err := env.repo.ListAllNotes(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("%d notes survived owner deletion", len(all))
	}

	// Bob's session went with him.
	if resp, _ := bob.get("/notes"); resp.StatusCode != http.StatusFound {
		t.Errorf("deleted user's session still valid: %d", resp.StatusCode)
	}
}

func TestIntegrationLoginRateLimited(t *testing.T) {
	env := newIntegrationEnv(t)
	client := env.newBrowser(t)

	var limited bool
	for i := 0; i < 25; i++ {
		resp := client.post("/login", url.Values{"username": {"nobody"}, "password": {"wrong-password"}})
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			if resp.Header.Get("Retry-After") == "" {
				t.Error("429 without Retry-After")
			}
			break
		}
	}
	if !limited {
		t.Error("expected login attempts to be rate limited")
	}
}
