package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupRedisServer(t *testing.T) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Session.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()
	app := setupTestApp(t, cfg)
	ts := httptest.NewServer(app.Handler())
	t.Cleanup(ts.Close)
	return ts, mr
}

func sessionKeys(mr *miniredis.Miniredis) []string {
	var keys []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, sessionKeyPrefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestRedisSessionLogin(t *testing.T) {
	ts, mr := setupRedisServer(t)
	client := newClient(t, ts, true)

	body := signup(t, ts, client, "testuser", "test@test.com", "testuser")
	if !strings.Contains(body, "@testuser") {
		t.Fatal("Expected timeline after signup with redis sessions")
	}

	keys := sessionKeys(mr)
	if len(keys) != 1 {
		t.Fatalf("Expected one session in redis, got %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 {
		t.Errorf("Expected session TTL, got %v", ttl)
	}

	// the cookie carries only the signed id
	for _, c := range client.Jar.Cookies(mustParseURL(t, ts.URL)) {
		if strings.Contains(c.Value, "testuser") {
			t.Error("Session cookie must not carry session values")
		}
	}

	body = doLogout(t, ts, client)
	if !strings.Contains(body, "You have successfully logged out.") {
		t.Error("Expected logout message")
	}
	body = getBody(t, ts, client, "/users/1/likes")
	if !strings.Contains(body, "Access unauthorized.") {
		t.Error("Expected anonymous after logout")
	}
}

func TestRedisSessionExpires(t *testing.T) {
	ts, mr := setupRedisServer(t)
	client := newClient(t, ts, false)

	signup(t, ts, client, "testuser", "test@test.com", "testuser")
	mr.FastForward(8 * 24 * time.Hour)
	if keys := sessionKeys(mr); len(keys) != 0 {
		t.Fatalf("Expected session to expire, got %v", keys)
	}

	resp, err := client.Get(ts.URL + "/users/1/likes")
	if err != nil {
		t.Fatal(err)
	}
	expectRedirect(t, resp, "/")
}

func TestRedisStoreRejectsForgedCookie(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := newRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	store := NewRedisStore(client, []byte("secret"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "warbler_session", Value: "forged"})
	session, err := store.Get(req, "warbler_session")
	if err == nil {
		t.Error("Expected decode error for forged cookie")
	}
	if session == nil || !session.IsNew || len(session.Values) != 0 {
		t.Error("Expected a fresh session for a forged cookie")
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := newRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	store := NewRedisStore(client, []byte("secret"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, _ := store.Get(req, "warbler_session")
	session.Values[CURR_USER_KEY] = uint(7)
	session.AddFlash(Flash{Category: "info", Message: "hi"})
	if err := session.Save(req, rec); err != nil {
		t.Fatal(err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected one cookie, got %d", len(cookies))
	}
	if !mr.Exists(sessionKeyPrefix + session.ID) {
		t.Fatalf("Expected %s in redis", sessionKeyPrefix+session.ID)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	loaded, err := store.Get(req2, "warbler_session")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.IsNew {
		t.Error("Expected existing session")
	}
	if id, _ := loaded.Values[CURR_USER_KEY].(uint); id != 7 {
		t.Errorf("Expected user id 7, got %v", loaded.Values[CURR_USER_KEY])
	}
	flashes := loaded.Flashes()
	if len(flashes) != 1 || flashes[0].(Flash).Message != "hi" {
		t.Errorf("Unexpected flashes %v", flashes)
	}

	// MaxAge < 0 deletes the session
	loaded.Options.MaxAge = -1
	if err := loaded.Save(req2, httptest.NewRecorder()); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(sessionKeyPrefix + session.ID) {
		t.Error("Expected session removed from redis")
	}
}
