package middleware

import "testing"

func TestHasPermission(t *testing.T) {
	user := &AppUser{Permissions: []string{"run.view", "run.create"}}

	if !HasPermission(user, "run.view") {
		t.Fatalf("HasPermission(run.view) = false, want true")
	}
	if HasPermission(user, "project.delete") {
		t.Fatalf("HasPermission(project.delete) = true, want false")
	}
	if HasPermission(nil, "run.view") {
		t.Fatalf("HasPermission(nil user) = true, want false")
	}
}

func TestHasAnyPermission(t *testing.T) {
	user := &AppUser{Permissions: []string{"run.view"}}

	if !HasAnyPermission(user, "run.view:all", "run.view") {
		t.Fatalf("HasAnyPermission = false, want true")
	}
	if HasAnyPermission(user, "run.delete", "project.delete") {
		t.Fatalf("HasAnyPermission = true, want false")
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(&AppUser{Role: "admin"}) {
		t.Fatalf("IsAdmin(admin) = false, want true")
	}
	if IsAdmin(&AppUser{Role: "user"}) {
		t.Fatalf("IsAdmin(user) = true, want false")
	}
	if IsAdmin(nil) {
		t.Fatalf("IsAdmin(nil) = true, want false")
	}
}
