package services

import (
	"errors"
	"testing"
	"time"
)

type authStubStore struct {
	users map[string]*User
}

func newAuthStubStore() *authStubStore {
	return &authStubStore{users: map[string]*User{}}
}

func (s *authStubStore) FindUserByEmail(email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (s *authStubStore) AddUser(u *User) error {
	if _, ok := s.users[u.Email]; ok {
		return errors.New("duplicate user")
	}
	copy := *u
	s.users[u.Email] = &copy
	return nil
}

func TestAuthRegisterAndLogin(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, func(uid, email, role string, ttl time.Duration) (string, error) {
		return "token:" + uid + ":" + role, nil
	})
	svc.now = func() time.Time { return time.Unix(0, 0) }
	svc.idGen = func() string { return "u1" }

	res, err := svc.Register("Admin@Example.com", "Secret123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.UserID != "u1" || res.Role != UserRoleAdmin {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Token != "token:u1:admin" {
		t.Fatalf("unexpected token %q", res.Token)
	}

	if _, err = svc.Register("admin@example.com", "Secret123"); !IsCode(err, ErrorConflict) {
		t.Fatalf("expected conflict on duplicate registration, got %v", err)
	}

	// Login is case-insensitive on email.
	loginRes, err := svc.Login("ADMIN@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loginRes.Token == "" {
		t.Fatalf("expected token in login response")
	}

	if _, err := svc.Login("admin@example.com", "wrong"); !IsCode(err, ErrorUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, err := svc.Login("missing@example.com", "Secret123"); !IsCode(err, ErrorUnauthorized) {
		t.Fatalf("expected unauthorized for missing user, got %v", err)
	}
}

func TestAuthValidation(t *testing.T) {
	svc := NewAuthService(newAuthStubStore(), nil)

	if _, err := svc.Register("", "pw"); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for empty email, got %v", err)
	}
	if _, err := svc.Register("a@b.c", "  "); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for blank password, got %v", err)
	}
	if _, err := svc.Login("", ""); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for empty credentials, got %v", err)
	}
}
