package rbac_test

import (
	"context"
	"testing"

	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

func TestCheckerHas(t *testing.T) {
	c := rbac.NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "quiz:submit", true},
		{"student", "quiz:create", false},
		{"student", "analytics:view", false},
		{"instructor", "quiz:create", true},
		{"instructor", "analytics:view", true},
		{"instructor", "admin:dashboard", false},
		{"admin", "admin:dashboard", true},
		{"admin", "anything:at_all", true},
		{"", "quiz:submit", false},
		{"ghost-role", "quiz:submit", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := rbac.NewChecker(nil)
	if !c.Any("student", "quiz:create", "quiz:submit") {
		t.Error("Any should pass when one permission matches")
	}
	if c.Any("student", "quiz:create", "analytics:view") {
		t.Error("Any should fail when no permission matches")
	}
}

func TestCheckerPrefixWildcard(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{
		"moderator": {"chat:*"},
	})
	if !c.Has("moderator", "chat:pin") {
		t.Error("prefix wildcard should match chat:pin")
	}
	if c.Has("moderator", "quiz:view") {
		t.Error("prefix wildcard should not match another namespace")
	}
}

func TestContextIdentity(t *testing.T) {
	ctx := rbac.WithSubject(context.Background(), "user-1")
	ctx = rbac.WithRole(ctx, "instructor")

	if got := rbac.SubjectFromContext(ctx); got != "user-1" {
		t.Errorf("subject = %q, want user-1", got)
	}
	if got := rbac.RoleFromContext(ctx); got != "instructor" {
		t.Errorf("role = %q, want instructor", got)
	}
	if got := rbac.SubjectFromContext(context.Background()); got != "" {
		t.Errorf("empty context subject = %q, want empty", got)
	}
}
