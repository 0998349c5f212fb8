package identity

import (
	"strings"
	"testing"

	"github.com/coderace-dev/coderace/internal/model"
)

func TestSessionLoginLogout(t *testing.T) {
	s := NewSession()
	if _, ok := s.User(); ok {
		t.Fatalf("fresh session must be anonymous")
	}
	if err := s.Login(model.User{ID: "u1", Username: "ann"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	user, ok := s.User()
	if !ok || user.Username != "ann" {
		t.Fatalf("unexpected user: %+v", user)
	}
	s.Logout()
	if _, ok := s.User(); ok {
		t.Fatalf("logout must clear the identity")
	}
}

func TestLoginRequiresIDAndName(t *testing.T) {
	s := NewSession()
	if err := s.Login(model.User{ID: "u1"}); err == nil {
		t.Fatalf("expected error for missing username")
	}
}

func TestGuestIdentity(t *testing.T) {
	g, err := Guest("  bob  ")
	if err != nil {
		t.Fatalf("guest failed: %v", err)
	}
	if g.Username != "bob" {
		t.Fatalf("expected trimmed name, got %q", g.Username)
	}
	if !strings.HasPrefix(g.ID, "guest_") {
		t.Fatalf("guest id must carry the guest prefix, got %q", g.ID)
	}
	other, _ := Guest("bob")
	if other.ID == g.ID {
		t.Fatalf("guest ids must be unique")
	}
}

func TestGuestRequiresName(t *testing.T) {
	if _, err := Guest("   "); err == nil {
		t.Fatalf("expected error for blank guest name")
	}
}
