package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/bookmemory/middleware"
	"github.com/kevinaaaquil/bookmemory/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB             store.Store
	JWTSecret      string
	TokenTTL       time.Duration
	Covers         CoverStorage   // optional
	Metadata       MetadataLookup // optional
	MaxUploadBytes int64
	CORSOrigins    []string
	AuthRateLimit  int
	AuthRateWindow time.Duration
	Logger         zerolog.Logger
	// Registry collects HTTP metrics; a fresh one is created when nil.
	Registry *prometheus.Registry
	Now      Clock
}

func NewRouter(d Deps) http.Handler {
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	if d.AuthRateLimit <= 0 || d.AuthRateWindow <= 0 {
		d.AuthRateLimit, d.AuthRateWindow = 20, time.Minute
	}

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, TokenTTL: d.TokenTTL, Now: d.Now}
	usersHandler := &UsersHandler{DB: d.DB, Now: d.Now}
	booksHandler := &BooksHandler{DB: d.DB, Covers: d.Covers, Now: d.Now, MaxUploadBytes: d.MaxUploadBytes}
	lookupHandler := &LookupHandler{Metadata: d.Metadata}
	importHandler := &ImportHandler{
		DB:             d.DB,
		Covers:         d.Covers,
		Metadata:       d.Metadata,
		Now:            d.Now,
		MaxUploadBytes: d.MaxUploadBytes,
	}
	chaptersHandler := &ChaptersHandler{DB: d.DB, Now: d.Now}
	notesHandler := &NotesHandler{DB: d.DB, Now: d.Now}
	commentsHandler := &CommentsHandler{DB: d.DB, Now: d.Now}
	messagesHandler := &MessagesHandler{DB: d.DB, Now: d.Now}
	statsHandler := &StatsHandler{DB: d.DB, Now: d.Now}

	metrics := middleware.NewMetrics(d.Registry)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(metrics.Handler)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigins))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageBody{Message: "welcome to book memory."})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			d.Logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	requireAuth := middleware.Auth(d.JWTSecret, d.DB)
	authLimit := middleware.RateLimitByIP(d.AuthRateLimit, d.AuthRateWindow)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/signup", authHandler.Signup)
			r.With(authLimit).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		r.Get("/books/{id}/cover", booksHandler.Cover)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/users/me", usersHandler.Me)
			r.Get("/users/me/following", usersHandler.Following)
			r.Get("/users/me/followers", usersHandler.Followers)
			r.Get("/users/{id}", usersHandler.Get)
			r.Post("/users/{id}/follow", usersHandler.Follow)
			r.Post("/users/{id}/unfollow", usersHandler.Unfollow)

			r.Get("/books", booksHandler.List)
			r.Post("/books", booksHandler.Create)
			r.Get("/books/lookup", lookupHandler.Lookup)
			r.Post("/books/import", importHandler.Import)
			r.Get("/books/{id}", booksHandler.Get)
			r.Put("/books/{id}", booksHandler.Update)
			r.Delete("/books/{id}", booksHandler.Delete)
			r.Put("/books/{id}/cover", booksHandler.UploadCover)

			r.Get("/books/{id}/chapters", chaptersHandler.List)
			r.Post("/books/{id}/chapters", chaptersHandler.Create)
			r.Put("/chapters/{id}", chaptersHandler.Update)
			r.Delete("/chapters/{id}", chaptersHandler.Delete)

			r.Get("/books/{id}/notes", notesHandler.List)
			r.Post("/books/{id}/notes", notesHandler.Create)
			r.Put("/notes/{id}", notesHandler.Update)
			r.Delete("/notes/{id}", notesHandler.Delete)

			r.Get("/books/{id}/comments", commentsHandler.List)
			r.Post("/books/{id}/comments", commentsHandler.Create)
			r.Delete("/comments/{id}", commentsHandler.Delete)

			r.Post("/messages/{id}", messagesHandler.Send)
			r.Get("/messages/{id}", messagesHandler.Conversation)

			r.Get("/stats/overview", statsHandler.Overview)
		})
	})

	return r
}
