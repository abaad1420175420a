package main

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

type ProfileInput struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
}

// Accounts is the credential store: signup, login and profile changes.
type Accounts struct {
	store *Store
	cost  int
}

func NewAccounts(store *Store, bcryptCost int) *Accounts {
	return &Accounts{store: store, cost: bcryptCost}
}

// Signup creates a user with a hashed password. On any error no row is
// written.
func (a *Accounts) Signup(ctx context.Context, in SignupInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidInput
	}

	if _, err := a.store.Users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := a.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(in.Password, a.cost)
	if err != nil {
		return nil, err
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		imageURL = DEFAULT_IMAGE_URL
	}

	user := &User{
		Username:       username,
		Email:          email,
		Password:       hash,
		ImageURL:       imageURL,
		HeaderImageURL: DEFAULT_HEADER_IMAGE_URL,
	}
	// The unique indexes still catch a concurrent signup that slipped
	// past the lookups above.
	if err := a.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user if password matches the stored hash.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := a.store.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (a *Accounts) UpdateProfile(ctx context.Context, userID uint, currentPassword string, in ProfileInput) (*User, error) {
	user, err := a.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.Password, currentPassword) {
		return nil, ErrInvalidCredentials
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidInput
	}

	user.Username = username
	user.Email = email
	user.ImageURL = orDefault(in.ImageURL, DEFAULT_IMAGE_URL)
	user.HeaderImageURL = orDefault(in.HeaderImageURL, DEFAULT_HEADER_IMAGE_URL)
	user.Bio = strings.TrimSpace(in.Bio)
	user.Location = strings.TrimSpace(in.Location)

	if err := a.store.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user together with every warble and edge that
// references them.
func (a *Accounts) DeleteAccount(ctx context.Context, userID uint) error {
	return a.store.Transaction(ctx, func(tx *Store) error {
		if err := tx.Likes.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := tx.Likes.DeleteByMessageAuthor(ctx, userID); err != nil {
			return err
		}
		if err := tx.Follows.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := tx.Messages.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, userID)
	})
}

// --- Password helpers ---

func hashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(bytes), nil
}

func checkPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
