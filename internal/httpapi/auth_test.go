package httpapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/store/memory"
)

func newTestAuth(t *testing.T) *AuthManager {
	t.Helper()
	auth := NewAuthManager(strings.Repeat("k", 32), time.Hour, memory.New())
	if err := auth.EnsureAdmin(context.Background(), "admin", "secret123"); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}
	return auth
}

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	auth := newTestAuth(t)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("expected admin role, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatal("expected login failure")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "secret123"}); err == nil {
		t.Fatal("expected login failure for unknown user")
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	auth := newTestAuth(t)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := auth.ParseToken(resp.AccessToken + "x"); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
	if _, err := auth.ParseToken("not.a.token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}

	other := NewAuthManager(strings.Repeat("z", 32), time.Hour, memory.New())
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestEnsureAdminIsNoopWhenUsersExist(t *testing.T) {
	auth := newTestAuth(t)

	if err := auth.EnsureAdmin(context.Background(), "second", "password9"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "second", Password: "password9"}); err == nil {
		t.Fatal("second bootstrap must not create another account")
	}
}

func TestCreateAdminValidation(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.CreateAdmin(domain.AdminUserCreateRequest{Username: "ab", Password: "longenough"}); err == nil {
		t.Fatal("expected short username to be rejected")
	}
	if _, err := auth.CreateAdmin(domain.AdminUserCreateRequest{Username: "clerk", Password: "123"}); err == nil {
		t.Fatal("expected short password to be rejected")
	}
	if _, err := auth.CreateAdmin(domain.AdminUserCreateRequest{Username: "admin", Password: "longenough"}); err == nil {
		t.Fatal("expected duplicate username to be rejected")
	}

	user, err := auth.CreateAdmin(domain.AdminUserCreateRequest{Username: "clerk", Password: "longenough"})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if user.Role != "admin" || !user.Active {
		t.Fatalf("unexpected user %+v", user)
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "clerk", Password: "longenough"}); err != nil {
		t.Fatalf("new admin login: %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	auth := newTestAuth(t)

	if err := auth.UpdatePassword("admin", "short"); err == nil {
		t.Fatal("expected short password to be rejected")
	}
	if err := auth.UpdatePassword("ghost", "longenough"); err == nil {
		t.Fatal("expected unknown user to be rejected")
	}

	if err := auth.UpdatePassword("admin", "newpassword"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "secret123"}); err == nil {
		t.Fatal("old password must stop working")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "newpassword"}); err != nil {
		t.Fatalf("new password login: %v", err)
	}
}
