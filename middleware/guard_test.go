package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goIdentity "github.com/MrEthical07/goIdentity"
)

func newEngineTest(t *testing.T) *goIdentity.Engine {
	t.Helper()

	cfg := goIdentity.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Session.SweepInterval = 0
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16

	engine, err := goIdentity.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func loginTest(t *testing.T, engine *goIdentity.Engine) *goIdentity.LoginResult {
	t.Helper()
	ctx := context.Background()

	if _, err := engine.Register(ctx, "a@b.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	res, err := engine.Login(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res
}

func echoIdentity(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, ok := AuthFromContext(r.Context())
		if !ok {
			t.Error("guarded handler ran without an AuthResult in context")
			return
		}
		_, _ = w.Write([]byte(auth.UserID))
	})
}

func TestGuardAcceptsValidBearerToken(t *testing.T) {
	engine := newEngineTest(t)
	login := loginTest(t, engine)

	handler := Guard(engine)(echoIdentity(t))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != login.UserID {
		t.Fatalf("body = %q, want user ID %q", rec.Body.String(), login.UserID)
	}
}

func TestGuardRejects(t *testing.T) {
	engine := newEngineTest(t)
	login := loginTest(t, engine)

	handler := Guard(engine)(echoIdentity(t))

	cases := map[string]func(r *http.Request){
		"no header":     func(*http.Request) {},
		"wrong scheme":  func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
		"garbage token": func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") },
		"empty token":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
	}

	for name, mutate := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		mutate(req)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}

	// A token over a logged-out session is rejected too.
	if _, err := engine.Logout(context.Background(), login.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("dead session: status = %d, want 401", rec.Code)
	}
}

func TestSessionGuardWithCookie(t *testing.T) {
	engine := newEngineTest(t)
	login := loginTest(t, engine)

	handler := SessionGuard(engine, "sid")(echoIdentity(t))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: login.SessionID, Expires: time.Now().Add(time.Hour)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// Missing cookie fails closed.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie: status = %d, want 401", rec.Code)
	}
}
