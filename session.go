package main

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
)

const CURR_USER_KEY = "curr_user"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// --- Session helpers ---

func sessionOptions(cfg *Config) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAgeSeconds,
		HttpOnly: true,
		Secure:   cfg.App.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	}
}

func newCookieStore(cfg *Config) *sessions.CookieStore {
	s := sessions.NewCookieStore([]byte(cfg.App.SecretKey))
	s.Options = sessionOptions(cfg)
	return s
}

// session returns the request's session. A cookie that fails to decode
// yields a fresh session, so the error is dropped.
func (a *App) session(r *http.Request) *sessions.Session {
	session, err := a.sessions.Get(r, a.cfg.Session.Name)
	if err != nil {
		a.log.WithError(err).Debug("discarding unreadable session")
	}
	return session
}

func (a *App) sessionUserID(r *http.Request) (uint, bool) {
	id, ok := a.session(r).Values[CURR_USER_KEY].(uint)
	return id, ok
}

func (a *App) logIn(w http.ResponseWriter, r *http.Request, user *User) error {
	session := a.session(r)
	session.Values[CURR_USER_KEY] = user.ID
	return session.Save(r, w)
}

// logOut drops the user id but keeps the session so a flash can still be
// carried to the next page.
func (a *App) logOut(w http.ResponseWriter, r *http.Request) error {
	session := a.session(r)
	delete(session.Values, CURR_USER_KEY)
	return session.Save(r, w)
}

func (a *App) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session := a.session(r)
	session.AddFlash(Flash{Category: category, Message: message})
	if err := session.Save(r, w); err != nil {
		a.log.WithError(err).Error("save flash failed")
	}
}

func (a *App) popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := a.session(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		a.log.WithError(err).Error("save session failed")
	}
	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}

// --- Request-scoped current user ---

type ctxKey int

const (
	currentUserKey ctxKey = iota
	requestIDKey
)

func withCurrentUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// currentUser returns the authenticated user or nil for anonymous requests.
func currentUser(r *http.Request) *User {
	user, _ := r.Context().Value(currentUserKey).(*User)
	return user
}
