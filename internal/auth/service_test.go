package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bher20/ecoenergy/internal/storage"
)

func newTestService(t *testing.T, ttl string) (*Service, *storage.MemoryStorage) {
	t.Helper()
	st := storage.NewMemory()
	svc, err := NewService(st, Options{TokenTTL: ttl})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, st
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, "30d")

	acc, err := svc.Register(ctx, "ana", "segredo")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if acc.Role != storage.RoleUser || acc.PasswordHash == "segredo" {
		t.Fatalf("unexpected account: %+v", acc)
	}

	if _, err := svc.Register(ctx, "ana", "outra"); !errors.Is(err, storage.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
	if _, err := svc.Register(ctx, "  ", "x"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	if _, err := svc.Login(ctx, "ana", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "bruno", "segredo"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	sess, err := svc.Login(ctx, "ana", "segredo")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if sess.Token == "" || sess.ExpiresAt == nil {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if d := time.Until(*sess.ExpiresAt); d < 29*24*time.Hour || d > 31*24*time.Hour {
		t.Errorf("unexpected expiry in %v", d)
	}

	tok, err := svc.ValidateToken(ctx, sess.Token)
	if err != nil || tok.Username != "ana" {
		t.Fatalf("ValidateToken: %v %v", tok, err)
	}

	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to be invalid, got %v", err)
	}
}

func TestUsernameTrimmedOnRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, "never")

	if _, err := svc.Register(ctx, " ana ", "segredo"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if acc, _ := st.GetAccount(ctx, "ana"); acc == nil {
		t.Fatalf("expected the account to be stored as %q", "ana")
	}
	for _, name := range []string{"ana", " ana", "ana\t", " ana "} {
		sess, err := svc.Login(ctx, name, "segredo")
		if err != nil {
			t.Fatalf("Login(%q) failed: %v", name, err)
		}
		if sess.Username != "ana" {
			t.Errorf("Login(%q) username = %q", name, sess.Username)
		}
	}
	if _, err := svc.Login(ctx, "   ", "segredo"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for a blank username, got %v", err)
	}
	if _, err := svc.Register(ctx, "ana  ", "outra"); !errors.Is(err, storage.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestLegacyHashUpgrade(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, "never")

	// sha256("password")
	legacy := "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"
	if err := st.CreateAccount(ctx, storage.Account{Username: "joao", PasswordHash: legacy, Role: storage.RoleUser}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Authenticate(ctx, "joao", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if acc, _ := st.GetAccount(ctx, "joao"); acc.PasswordHash != legacy {
		t.Fatalf("failed login must not touch the hash")
	}

	sess, err := svc.Login(ctx, "joao", "password")
	if err != nil {
		t.Fatalf("legacy login failed: %v", err)
	}
	if sess.ExpiresAt != nil {
		t.Errorf("ttl 'never' should not expire, got %v", sess.ExpiresAt)
	}
	acc, _ := st.GetAccount(ctx, "joao")
	if !strings.HasPrefix(acc.PasswordHash, "$2") {
		t.Fatalf("expected bcrypt hash after upgrade, got %q", acc.PasswordHash)
	}
	if _, err := svc.Authenticate(ctx, "joao", "password"); err != nil {
		t.Fatalf("login after upgrade failed: %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, "1h")
	if _, err := svc.Register(ctx, "ana", "x"); err != nil {
		t.Fatal(err)
	}
	sess, err := svc.Login(ctx, "ana", "x")
	if err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ValidateToken(ctx, sess.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestEnforce(t *testing.T) {
	svc, _ := newTestService(t, "")
	ana := &storage.Account{Username: "ana", Role: storage.RoleUser}
	root := &storage.Account{Username: "root", Role: storage.RoleAdmin}
	impostor := &storage.Account{Username: "admin", Role: storage.RoleUser}

	cases := []struct {
		acc   *storage.Account
		owner string
		obj   string
		act   string
		want  bool
	}{
		{ana, "ana", ObjAppliances, ActWrite, true},
		{ana, "ana", ObjConsumption, ActRead, true},
		{ana, "bruno", ObjAppliances, ActRead, false},
		{ana, "ana", ObjConsumption, ActWrite, false},
		{root, "bruno", ObjHistory, ActWrite, true},
		{impostor, "bruno", ObjHistory, ActRead, false},
		{nil, "ana", ObjHistory, ActRead, false},
	}
	for _, tc := range cases {
		got, err := svc.Enforce(tc.acc, tc.owner, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("Enforce error: %v", err)
		}
		if got != tc.want {
			t.Errorf("Enforce(%v, %s, %s, %s) = %v, want %v", tc.acc, tc.owner, tc.obj, tc.act, got, tc.want)
		}
	}
}

func TestMiddlewareAndPermission(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, "24h")
	for _, u := range []string{"ana", "bruno"} {
		if _, err := svc.Register(ctx, u, "pw"); err != nil {
			t.Fatal(err)
		}
	}
	sess, err := svc.Login(ctx, "ana", "pw")
	if err != nil {
		t.Fatal(err)
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(TargetUser(r)))
	})
	h := svc.Middleware(svc.RequirePermission(ObjAppliances, ActRead, ok))

	cases := []struct {
		name   string
		header string
		url    string
		code   int
		body   string
	}{
		{"no header", "", "/", http.StatusUnauthorized, ""},
		{"malformed", "Token abc", "/", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", "/", http.StatusUnauthorized, ""},
		{"own data", "Bearer " + sess.Token, "/", http.StatusOK, "ana"},
		{"other user", "Bearer " + sess.Token, "/?user=bruno", http.StatusForbidden, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d (%s)", tc.code, rec.Code, rec.Body.String())
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Errorf("expected body %q, got %q", tc.body, rec.Body.String())
			}
		})
	}
}

func TestParseExpiration(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	cases := map[string]time.Duration{
		"30d": 30 * 24 * time.Hour,
		"2w":  14 * 24 * time.Hour,
		"24h": 24 * time.Hour,
		"90m": 90 * time.Minute,
	}
	for in, want := range cases {
		got, err := ParseExpiration(in, now)
		if err != nil || got == nil {
			t.Fatalf("ParseExpiration(%q): %v %v", in, got, err)
		}
		if got.Sub(now) != want {
			t.Errorf("ParseExpiration(%q) = +%v, want +%v", in, got.Sub(now), want)
		}
	}

	if got, err := ParseExpiration("never", now); err != nil || got != nil {
		t.Errorf("never should yield nil, got %v %v", got, err)
	}
	got, err := ParseExpiration("25/12/2026", now)
	if err != nil || got.Month() != time.December || got.Day() != 25 {
		t.Errorf("unexpected date parse: %v %v", got, err)
	}
	for _, bad := range []string{"01/01/2020", "soon", "0d", "-5m"} {
		if _, err := ParseExpiration(bad, now); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
