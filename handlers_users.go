package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// GET /users?q=: search by username
func (a *App) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.Users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "users", map[string]interface{}{
		"users": userViews(users),
		"title": "Users",
	})
}

// GET /users/{id}: profile with the user's warbles
func (a *App) showUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := a.store.Users.GetByID(ctx, idVar(r))
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	messages, err := a.store.Messages.ListByUser(ctx, user.ID, PER_PAGE)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	data, err := a.profileCounts(r, user)
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	me := currentUser(r)
	isFollowing, err := a.graph.IsFollowing(ctx, me, user)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	followsYou, err := a.graph.IsFollowedBy(ctx, me, user)
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	data["user"] = userView(user)
	data["messages"] = messageViews(messages, nil)
	data["is_self"] = me != nil && me.ID == user.ID
	data["is_following"] = isFollowing
	data["follows_you"] = followsYou
	data["title"] = "@" + user.Username
	a.render(w, r, http.StatusOK, "show", data)
}

// GET /users/{id}/following
func (a *App) showFollowingHandler(w http.ResponseWriter, r *http.Request) {
	a.renderUserList(w, r, "following", a.store.Follows.Following)
}

// GET /users/{id}/followers
func (a *App) showFollowersHandler(w http.ResponseWriter, r *http.Request) {
	a.renderUserList(w, r, "followers", a.store.Follows.Followers)
}

func (a *App) renderUserList(w http.ResponseWriter, r *http.Request, page string, list func(ctx context.Context, id uint) ([]User, error)) {
	ctx := r.Context()
	user, err := a.store.Users.GetByID(ctx, idVar(r))
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	users, err := list(ctx, user.ID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	me := currentUser(r)
	a.render(w, r, http.StatusOK, page, map[string]interface{}{
		"user":    userView(user),
		"users":   userViews(users),
		"is_self": me.ID == user.ID,
		"title":   "@" + user.Username,
	})
}

// GET /users/{id}/likes
func (a *App) showLikesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := a.store.Users.GetByID(ctx, idVar(r))
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	messages, err := a.store.Likes.LikedMessages(ctx, user.ID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "likes", map[string]interface{}{
		"user":     userView(user),
		"messages": messageViews(messages, nil),
		"title":    "@" + user.Username,
	})
}

// POST /users/follow/{id}
func (a *App) followHandler(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	target, err := a.graph.Follow(r.Context(), me.ID, idVar(r))
	switch {
	case errors.Is(err, ErrSelfFollow):
		a.addFlash(w, r, "danger", "You cannot follow yourself.")
	case err != nil:
		a.respondErr(w, r, err, "User")
		return
	default:
		FollowsTotal.WithLabelValues("follow").Inc()
		a.logRequest(r).WithField("target_id", target.ID).Info("user followed")
	}
	http.Redirect(w, r, fmt.Sprintf("/users/%d/following", me.ID), http.StatusFound)
}

// POST /users/stop-following/{id}
func (a *App) stopFollowingHandler(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	target, err := a.graph.Unfollow(r.Context(), me.ID, idVar(r))
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	FollowsTotal.WithLabelValues("unfollow").Inc()
	a.logRequest(r).WithField("target_id", target.ID).Info("user unfollowed")
	http.Redirect(w, r, fmt.Sprintf("/users/%d/following", me.ID), http.StatusFound)
}

// GET + POST /users/profile
func (a *App) profileHandler(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	form := map[string]interface{}{
		"username":         me.Username,
		"email":            me.Email,
		"image_url":        me.ImageURL,
		"header_image_url": me.HeaderImageURL,
		"bio":              me.Bio,
		"location":         me.Location,
	}
	if r.Method == http.MethodGet {
		a.render(w, r, http.StatusOK, "edit", map[string]interface{}{"form": form, "title": "Edit profile"})
		return
	}

	in := ProfileInput{
		Username:       r.FormValue("username"),
		Email:          r.FormValue("email"),
		ImageURL:       r.FormValue("image_url"),
		HeaderImageURL: r.FormValue("header_image_url"),
		Bio:            r.FormValue("bio"),
		Location:       r.FormValue("location"),
	}
	user, err := a.accounts.UpdateProfile(r.Context(), me.ID, r.FormValue("password"), in)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			msg = "Wrong password, please try again."
		case errors.Is(err, ErrUsernameTaken):
			msg = "Username already taken"
		case errors.Is(err, ErrEmailTaken):
			msg = "Email already taken"
		case errors.Is(err, ErrInvalidInput):
			msg = "Username and a valid email are required"
		default:
			a.serverError(w, r, err)
			return
		}
		form["username"], form["email"] = in.Username, in.Email
		form["image_url"], form["header_image_url"] = in.ImageURL, in.HeaderImageURL
		form["bio"], form["location"] = in.Bio, in.Location
		a.render(w, r, http.StatusOK, "edit", map[string]interface{}{"form": form, "error": msg, "title": "Edit profile"})
		return
	}

	a.logRequest(r).Info("profile updated")
	a.addFlash(w, r, "success", "Profile updated.")
	http.Redirect(w, r, fmt.Sprintf("/users/%d", user.ID), http.StatusFound)
}

// POST /users/delete: removes the account and everything it owns
func (a *App) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if err := a.accounts.DeleteAccount(r.Context(), me.ID); err != nil {
		a.serverError(w, r, err)
		return
	}
	if err := a.logOut(w, r); err != nil {
		a.serverError(w, r, err)
		return
	}
	a.logRequest(r).Info("account deleted")
	http.Redirect(w, r, "/signup", http.StatusFound)
}
