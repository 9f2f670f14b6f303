package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nextlearn/nextlearn-lms/internal/auth"
	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

func seedUser(t *testing.T, store lms.Store, email, password, role string, active bool) lms.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := lms.User{Email: email, Name: "Test", Role: role, PasswordHash: hash, Active: active}
	if err := store.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestTokenRoundTrip(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := auth.NewService("test-secret", time.Hour, store)

	tok, err := svc.IssueToken("user-1", lms.RoleInstructor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "user-1" || claims.Role != lms.RoleInstructor {
		t.Errorf("claims = %+v, want sub=user-1 role=instructor", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	store := lms.NewInMemoryStore()
	issuer := auth.NewService("secret-a", time.Hour, store)
	verifier := auth.NewService("secret-b", time.Hour, store)

	tok, err := issuer.IssueToken("user-1", lms.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.Parse(tok); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := auth.NewService("test-secret", time.Hour, store)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{
		Sub:  "user-1",
		Role: lms.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Parse(tok); err == nil {
		t.Fatal("alg=none token accepted")
	}
}

func TestAuthenticate(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := auth.NewService("test-secret", time.Hour, store)
	ctx := context.Background()

	u := seedUser(t, store, "a@example.com", "hunter22", lms.RoleStudent, true)

	got, err := svc.Authenticate(ctx, "a@example.com", "hunter22")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated wrong user: %s", got.ID)
	}

	if _, err := svc.Authenticate(ctx, "a@example.com", "wrong"); err == nil {
		t.Error("wrong password accepted")
	}
	if _, err := svc.Authenticate(ctx, "missing@example.com", "hunter22"); err == nil {
		t.Error("unknown email accepted")
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := auth.NewService("test-secret", time.Hour, store)

	seedUser(t, store, "off@example.com", "hunter22", lms.RoleStudent, false)
	if _, err := svc.Authenticate(context.Background(), "off@example.com", "hunter22"); err == nil {
		t.Fatal("inactive user authenticated")
	}
}

func TestResolveRolePrefersStoredRole(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := auth.NewService("test-secret", time.Hour, store)
	ctx := context.Background()

	u := seedUser(t, store, "r@example.com", "hunter22", lms.RoleStudent, true)

	// promote after the token was issued; the stored role wins
	if err := store.SetUserRole(ctx, u.ID, lms.RoleInstructor); err != nil {
		t.Fatal(err)
	}
	if got := svc.ResolveRole(ctx, u.ID, lms.RoleStudent); got != lms.RoleInstructor {
		t.Errorf("resolved role = %q, want instructor", got)
	}

	// unknown user falls back to the claim
	if got := svc.ResolveRole(ctx, "ghost", lms.RoleStudent); got != lms.RoleStudent {
		t.Errorf("fallback role = %q, want student", got)
	}
}
