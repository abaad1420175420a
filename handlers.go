package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// GET /: timeline of self + followed users, or the anonymous landing page
func (a *App) homeHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		a.render(w, r, http.StatusOK, "home-anon", nil)
		return
	}

	ctx := r.Context()
	messages, err := a.warbles.Timeline(ctx, user.ID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	liked, err := a.likedSet(r, user)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	data, err := a.profileCounts(r, user)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	data["messages"] = messageViews(messages, liked)
	a.render(w, r, http.StatusOK, "home", data)
}

// GET + POST /signup
func (a *App) signupHandler(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	form := map[string]interface{}{"username": "", "email": "", "image_url": ""}
	if r.Method == http.MethodGet {
		a.render(w, r, http.StatusOK, "signup", map[string]interface{}{"form": form, "title": "Sign up"})
		return
	}

	in := SignupInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		ImageURL: r.FormValue("image_url"),
	}
	form["username"], form["email"], form["image_url"] = in.Username, in.Email, in.ImageURL

	user, err := a.accounts.Signup(r.Context(), in)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, ErrUsernameTaken):
			msg = "Username already taken"
		case errors.Is(err, ErrEmailTaken):
			msg = "Email already taken"
		case errors.Is(err, ErrInvalidInput):
			msg = "Username, a valid email and a password are required"
		default:
			a.serverError(w, r, err)
			return
		}
		a.render(w, r, http.StatusOK, "signup", map[string]interface{}{"form": form, "error": msg, "title": "Sign up"})
		return
	}

	SignupsTotal.Inc()
	a.logRequest(r).WithField("user_id", user.ID).Info("user signed up")
	if err := a.logIn(w, r, user); err != nil {
		a.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// GET + POST /login
func (a *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	form := map[string]interface{}{"username": r.FormValue("username")}
	if r.Method == http.MethodGet {
		a.render(w, r, http.StatusOK, "login", map[string]interface{}{"form": form, "title": "Log in"})
		return
	}

	user, err := a.accounts.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if errors.Is(err, ErrInvalidCredentials) {
		LoginsTotal.WithLabelValues("failure").Inc()
		a.render(w, r, http.StatusOK, "login", map[string]interface{}{
			"form":  form,
			"error": "Invalid credentials.",
			"title": "Log in",
		})
		return
	}
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	LoginsTotal.WithLabelValues("success").Inc()
	a.logRequest(r).WithField("user_id", user.ID).Info("user logged in")
	if err := a.logIn(w, r, user); err != nil {
		a.serverError(w, r, err)
		return
	}
	a.addFlash(w, r, "success", fmt.Sprintf("Hello, %s!", user.Username))
	http.Redirect(w, r, "/", http.StatusFound)
}

// GET /logout
func (a *App) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if user := currentUser(r); user != nil {
		if err := a.logOut(w, r); err != nil {
			a.serverError(w, r, err)
			return
		}
		a.logRequest(r).Info("user logged out")
		a.addFlash(w, r, "success", "You have successfully logged out.")
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// GET /healthz
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		a.logRequest(r).WithError(err).Error("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) notFound(w http.ResponseWriter, r *http.Request, what string) {
	a.render(w, r, http.StatusNotFound, "404", map[string]interface{}{
		"error": what + " not found.",
		"title": "Not found",
	})
}

// respondErr maps service errors onto the HTML surface.
func (a *App) respondErr(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, ErrNotFound) {
		a.notFound(w, r, what)
		return
	}
	a.serverError(w, r, err)
}

func idVar(r *http.Request) uint {
	id, _ := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id)
}

func (a *App) likedSet(r *http.Request, user *User) (map[uint]bool, error) {
	if user == nil {
		return nil, nil
	}
	ids, err := a.store.Likes.LikedMessageIDs(r.Context(), user.ID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// profileCounts returns the stat counters shown next to a user.
func (a *App) profileCounts(r *http.Request, user *User) (map[string]interface{}, error) {
	ctx := r.Context()
	messages, err := a.store.Messages.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := a.store.Follows.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	followers, err := a.store.Follows.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	likes, err := a.store.Likes.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"message_count":   messages,
		"following_count": following,
		"follower_count":  followers,
		"like_count":      likes,
	}, nil
}
