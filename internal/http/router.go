package http

import (
	"net/http"

	"panne/internal/auth"
	"panne/internal/blob"
	"panne/internal/config"
	"panne/internal/http/handler"
	mw "panne/internal/http/middleware"
	"panne/internal/jobs"
	"panne/internal/note"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, uploader blob.Uploader) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{DB: db}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	svc := &note.Service{Store: note.NewGormStore(db)}
	jobsRepo := &jobs.Repo{DB: db}

	noteH := &handler.NoteHandler{Svc: svc}
	nbH := &handler.NotebookHandler{Svc: svc, Jobs: jobsRepo, Cascade: cfg.CascadeMode}

	r.Route("/notes", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", noteH.Create)
		r.Get("/", noteH.List)
		r.Get("/{id}", noteH.Get)
		r.Put("/{id}", noteH.Save)
		r.Delete("/{id}", noteH.Delete)

		r.Get("/{id}/versions", noteH.ListVersions)
		r.Post("/{id}/revert", noteH.Revert)
	})

	r.Route("/notebooks", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", nbH.Create)
		r.Get("/", nbH.List)
		r.Delete("/{id}", nbH.Delete)
	})

	// read-only share link: no auth on purpose, serves the current
	// projection only
	sharedH := &handler.SharedNoteHandler{Svc: svc}
	r.Get("/shared-note", sharedH.Get)

	if uploader != nil {
		upH := &handler.UploadHandler{Uploader: uploader}
		r.With(auth.RequireAuth(jwtSvc)).Post("/uploads", upH.Upload)
	}

	return r
}
