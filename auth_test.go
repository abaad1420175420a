package main

import (
	"context"
	"errors"
	"testing"
)

func TestUserModel(t *testing.T) {
	store := setupTestStore(t)
	accounts := NewAccounts(store, testConfig(t).Auth.BcryptCost)
	ctx := context.Background()

	u, err := accounts.Signup(ctx, SignupInput{Username: "testuser", Email: "test@test.com", Password: "HASHED_PASSWORD"})
	if err != nil {
		t.Fatal(err)
	}

	msgs, _ := store.Messages.ListByUser(ctx, u.ID, PER_PAGE)
	if len(msgs) != 0 {
		t.Errorf("Expected no warbles, got %d", len(msgs))
	}
	followers, _ := store.Follows.Followers(ctx, u.ID)
	if len(followers) != 0 {
		t.Errorf("Expected no followers, got %d", len(followers))
	}
	if got := u.String(); got != "<User #1: testuser, test@test.com>" {
		t.Errorf("Unexpected String(): %s", got)
	}
	if u.ImageURL != DEFAULT_IMAGE_URL || u.HeaderImageURL != DEFAULT_HEADER_IMAGE_URL {
		t.Errorf("Expected default images, got %q %q", u.ImageURL, u.HeaderImageURL)
	}
}

func TestSignupStoresHashedPassword(t *testing.T) {
	store := setupTestStore(t)
	accounts := NewAccounts(store, testConfig(t).Auth.BcryptCost)
	ctx := context.Background()

	u, err := accounts.Signup(ctx, SignupInput{
		Username: "testuser",
		Email:    "test@test.com",
		Password: "password",
		ImageURL: "/static/images/me.png",
	})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := store.Users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Password == "password" {
		t.Error("Password stored in plaintext")
	}
	if !checkPassword(stored.Password, "password") {
		t.Error("Stored hash does not verify")
	}
	if stored.ImageURL != "/static/images/me.png" {
		t.Errorf("Expected custom image, got %q", stored.ImageURL)
	}
}

func TestSignupFailures(t *testing.T) {
	store := setupTestStore(t)
	accounts := NewAccounts(store, testConfig(t).Auth.BcryptCost)
	ctx := context.Background()

	if _, err := accounts.Signup(ctx, SignupInput{Username: "testuser", Email: "test@test.com", Password: "password"}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		in   SignupInput
		want error
	}{
		{"duplicate username", SignupInput{Username: "testuser", Email: "new@test.com", Password: "password"}, ErrUsernameTaken},
		{"duplicate email", SignupInput{Username: "newuser", Email: "test@test.com", Password: "password"}, ErrEmailTaken},
		{"empty email", SignupInput{Username: "newuser", Email: "", Password: "password"}, ErrInvalidInput},
		{"empty password", SignupInput{Username: "newuser", Email: "new@test.com", Password: ""}, ErrInvalidInput},
		{"empty username", SignupInput{Username: "  ", Email: "new@test.com", Password: "password"}, ErrInvalidInput},
		{"malformed email", SignupInput{Username: "newuser", Email: "not-an-email", Password: "password"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := accounts.Signup(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
			if u != nil {
				t.Error("Expected no user on failure")
			}
		})
	}

	n, err := store.Users.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Expected 1 user after failed signups, got %d", n)
	}
}

func TestUniqueIndexBacksSignup(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Users.Create(ctx, &User{Username: "dup", Email: "a@test.com", Password: "x"}); err != nil {
		t.Fatal(err)
	}
	err := store.Users.Create(ctx, &User{Username: "dup", Email: "b@test.com", Password: "x"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Expected ErrUsernameTaken from unique index, got %v", err)
	}
	err = store.Users.Create(ctx, &User{Username: "other", Email: "a@test.com", Password: "x"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken from unique index, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	store := setupTestStore(t)
	accounts := NewAccounts(store, testConfig(t).Auth.BcryptCost)
	ctx := context.Background()

	created, err := accounts.Signup(ctx, SignupInput{Username: "testuser", Email: "test@test.com", Password: "password"})
	if err != nil {
		t.Fatal(err)
	}

	u, err := accounts.Authenticate(ctx, "testuser", "password")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != created.ID {
		t.Errorf("Expected user %d, got %d", created.ID, u.ID)
	}

	if _, err := accounts.Authenticate(ctx, "testuser", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := accounts.Authenticate(ctx, "nobody", "password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestUpdateProfileConflicts(t *testing.T) {
	store := setupTestStore(t)
	accounts := NewAccounts(store, testConfig(t).Auth.BcryptCost)
	ctx := context.Background()

	accounts.Signup(ctx, SignupInput{Username: "taken", Email: "taken@test.com", Password: "pw"})
	u, err := accounts.Signup(ctx, SignupInput{Username: "testuser", Email: "test@test.com", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = accounts.UpdateProfile(ctx, u.ID, "pw", ProfileInput{Username: "taken", Email: "test@test.com"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Expected ErrUsernameTaken, got %v", err)
	}
	_, err = accounts.UpdateProfile(ctx, u.ID, "nope", ProfileInput{Username: "fresh", Email: "test@test.com"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}

	stored, _ := store.Users.GetByID(ctx, u.ID)
	if stored.Username != "testuser" {
		t.Errorf("Expected username unchanged, got %q", stored.Username)
	}
}
