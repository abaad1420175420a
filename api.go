package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type apiClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (a *App) issueToken(user *User) (string, error) {
	now := time.Now()
	claims := apiClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.JWTExpiry())),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.Auth.JWTSecret))
}

func (a *App) parseToken(raw string) (uint, error) {
	var claims apiClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.cfg.Auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// requireToken authenticates API calls with a bearer token and puts the
// user into the request context.
func (a *App) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := a.parseToken(strings.TrimSpace(strings.TrimPrefix(authHeader, prefix)))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		user, err := a.store.Users.GetByID(r.Context(), userID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if err != nil {
			a.apiError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCurrentUser(r.Context(), user)))
	})
}

// POST /api/token
func (a *App) apiTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := a.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			LoginsTotal.WithLabelValues("failure").Inc()
		}
		a.apiError(w, r, err)
		return
	}
	token, err := a.issueToken(user)
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	LoginsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GET /api/users/{id}
func (a *App) apiUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.Users.GetByID(r.Context(), idVar(r))
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GET /api/users/{id}/messages
func (a *App) apiUserMessagesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := a.store.Users.GetByID(ctx, idVar(r))
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	msgs, err := a.store.Messages.ListByUser(ctx, user.ID, PER_PAGE)
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// POST /api/messages
func (a *App) apiPostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	me := currentUser(r)
	msg, err := a.warbles.Post(r.Context(), me.ID, req.Text)
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	MessagesPosted.Inc()
	a.logRequest(r).WithField("message_id", msg.ID).Info("warble posted")
	writeJSON(w, http.StatusCreated, msg)
}

// POST /api/messages/{id}/like
func (a *App) apiLikeHandler(w http.ResponseWriter, r *http.Request) {
	id := idVar(r)
	liked, err := a.warbles.ToggleLike(r.Context(), currentUser(r).ID, id)
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	LikesTotal.WithLabelValues(likeAction(liked)).Inc()
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// DELETE /api/messages/{id}
func (a *App) apiDeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	id := idVar(r)
	if _, err := a.warbles.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		a.apiError(w, r, err)
		return
	}
	a.logRequest(r).WithField("message_id", id).Info("warble deleted")
	w.WriteHeader(http.StatusNoContent)
}

// apiError maps service errors to JSON error responses.
func (a *App) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrSelfLike), errors.Is(err, ErrSelfFollow):
		writeError(w, http.StatusForbidden, err.Error())
	case isClientErr(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logRequest(r).WithError(err).Error("api request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
