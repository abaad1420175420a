package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// App holds everything a request handler needs.
type App struct {
	cfg      *Config
	log      *logrus.Logger
	store    *Store
	sessions sessions.Store
	redis    *redis.Client
	renderer *Renderer

	accounts *Accounts
	warbles  *Warbles
	graph    *Graph
}

func NewApp(ctx context.Context, cfg *Config, log *logrus.Logger, store *Store) (*App, error) {
	renderer, err := NewRenderer(templateFS)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		renderer: renderer,
		accounts: NewAccounts(store, cfg.Auth.BcryptCost),
		warbles:  NewWarbles(store),
		graph:    NewGraph(store),
	}

	switch cfg.Session.Backend {
	case "redis":
		client, err := newRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		rs := NewRedisStore(client, []byte(cfg.App.SecretKey))
		rs.Options = sessionOptions(cfg)
		app.redis = client
		app.sessions = rs
	case "cookie":
		app.sessions = newCookieStore(cfg)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
	return app, nil
}

func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// Handler returns the full middleware chain around the router.
func (a *App) Handler() http.Handler {
	return withRequestID(a.recoverer(a.accessLog(a.Router())))
}

func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(instrument)

	static, _ := fs.Sub(staticFS, "static")
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/healthz", a.healthHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/token", a.apiTokenHandler).Methods("POST")
	authed := api.NewRoute().Subrouter()
	authed.Use(a.requireToken)
	authed.HandleFunc("/users/{id:[0-9]+}", a.apiUserHandler).Methods("GET")
	authed.HandleFunc("/users/{id:[0-9]+}/messages", a.apiUserMessagesHandler).Methods("GET")
	authed.HandleFunc("/messages", a.apiPostMessageHandler).Methods("POST")
	authed.HandleFunc("/messages/{id:[0-9]+}/like", a.apiLikeHandler).Methods("POST")
	authed.HandleFunc("/messages/{id:[0-9]+}", a.apiDeleteMessageHandler).Methods("DELETE")

	web := router.NewRoute().Subrouter()
	web.Use(a.loadUser)
	web.HandleFunc("/", a.homeHandler).Methods("GET")
	web.HandleFunc("/signup", a.signupHandler).Methods("GET", "POST")
	web.HandleFunc("/login", a.loginHandler).Methods("GET", "POST")
	web.HandleFunc("/logout", a.logoutHandler).Methods("GET")

	web.HandleFunc("/users", a.listUsersHandler).Methods("GET")
	web.HandleFunc("/users/profile", a.requireLogin(a.profileHandler)).Methods("GET", "POST")
	web.HandleFunc("/users/delete", a.requireLogin(a.deleteUserHandler)).Methods("POST")
	web.HandleFunc("/users/follow/{id:[0-9]+}", a.requireLogin(a.followHandler)).Methods("POST")
	web.HandleFunc("/users/stop-following/{id:[0-9]+}", a.requireLogin(a.stopFollowingHandler)).Methods("POST")
	web.HandleFunc("/users/{id:[0-9]+}", a.showUserHandler).Methods("GET")
	web.HandleFunc("/users/{id:[0-9]+}/following", a.requireLogin(a.showFollowingHandler)).Methods("GET")
	web.HandleFunc("/users/{id:[0-9]+}/followers", a.requireLogin(a.showFollowersHandler)).Methods("GET")
	web.HandleFunc("/users/{id:[0-9]+}/likes", a.requireLogin(a.showLikesHandler)).Methods("GET")

	web.HandleFunc("/messages/new", a.requireLogin(a.newMessageHandler)).Methods("GET", "POST")
	web.HandleFunc("/messages/{id:[0-9]+}", a.showMessageHandler).Methods("GET")
	web.HandleFunc("/messages/{id:[0-9]+}/like", a.requireLogin(a.likeMessageHandler)).Methods("POST")
	web.HandleFunc("/messages/{id:[0-9]+}/delete", a.requireLogin(a.deleteMessageHandler)).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.notFound(w, r, "Page")
	})
	return router
}
