package main

import (
	"errors"
	"fmt"
	"net/http"
)

// GET + POST /messages/new
func (a *App) newMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		a.render(w, r, http.StatusOK, "message_new", map[string]interface{}{"text": "", "title": "New warble"})
		return
	}

	me := currentUser(r)
	text := r.FormValue("text")
	msg, err := a.warbles.Post(r.Context(), me.ID, text)
	if errors.Is(err, ErrInvalidInput) {
		a.render(w, r, http.StatusBadRequest, "message_new", map[string]interface{}{
			"text":  text,
			"error": fmt.Sprintf("A warble needs between 1 and %d characters.", MAX_WARBLE_LEN),
			"title": "New warble",
		})
		return
	}
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	MessagesPosted.Inc()
	a.logRequest(r).WithField("message_id", msg.ID).Info("warble posted")
	http.Redirect(w, r, fmt.Sprintf("/users/%d", me.ID), http.StatusFound)
}

// GET /messages/{id}
func (a *App) showMessageHandler(w http.ResponseWriter, r *http.Request) {
	msg, err := a.warbles.Get(r.Context(), idVar(r))
	if err != nil {
		a.respondErr(w, r, err, "Message")
		return
	}
	liked, err := a.likedSet(r, currentUser(r))
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "message_show", map[string]interface{}{
		"msg":   messageView(msg, liked),
		"title": "Warble",
	})
}

// POST /messages/{id}/like: toggles; liking your own warble is refused
func (a *App) likeMessageHandler(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	id := idVar(r)
	liked, err := a.warbles.ToggleLike(r.Context(), me.ID, id)
	switch {
	case errors.Is(err, ErrSelfLike):
		a.addFlash(w, r, "danger", "You cannot like your own warble.")
	case err != nil:
		a.respondErr(w, r, err, "Message")
		return
	default:
		LikesTotal.WithLabelValues(likeAction(liked)).Inc()
		a.logRequest(r).WithField("message_id", id).Info("warble " + likeAction(liked) + "d")
	}
	http.Redirect(w, r, fmt.Sprintf("/messages/%d", id), http.StatusFound)
}

// POST /messages/{id}/delete: owner only
func (a *App) deleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	id := idVar(r)
	msg, err := a.warbles.Delete(r.Context(), me.ID, id)
	switch {
	case errors.Is(err, ErrForbidden):
		a.addFlash(w, r, "danger", "Access unauthorized.")
		http.Redirect(w, r, fmt.Sprintf("/messages/%d", id), http.StatusFound)
		return
	case err != nil:
		a.respondErr(w, r, err, "Message")
		return
	}
	a.logRequest(r).WithField("message_id", id).Info("warble deleted")
	http.Redirect(w, r, fmt.Sprintf("/users/%d", msg.UserID), http.StatusFound)
}
