// Package identity manages the user identity of the running client.
package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/coderace-dev/coderace/internal/model"
)

// Session holds the current user for the lifetime of the process. It
// is passed down explicitly instead of living in package state.
type Session struct {
	user model.User
}

// NewSession starts an anonymous session.
func NewSession() *Session {
	return &Session{}
}

// Login installs a user identity.
func (s *Session) Login(user model.User) error {
	if user.ID == "" || user.Username == "" {
		return fmt.Errorf("user id and username are required")
	}
	s.user = user
	return nil
}

// Logout clears the current identity.
func (s *Session) Logout() {
	s.user = model.User{}
}

// User returns the current identity and whether one is set.
func (s *Session) User() (model.User, bool) {
	if s.user.ID == "" {
		return model.User{}, false
	}
	return s.user, true
}

// Guest builds a throwaway identity for joining races without an
// account. The name is required; the id is generated.
func Guest(name string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, fmt.Errorf("guest name is required")
	}
	return model.User{
		ID:       "guest_" + uuid.NewString(),
		Username: name,
	}, nil
}
