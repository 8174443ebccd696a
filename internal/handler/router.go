package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/creators-jp/portal-server/internal/config"
	"github.com/creators-jp/portal-server/internal/middleware"
)

type Router struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Articles *ArticleHandler
	Reports  *ReportHandler
	Admin    *AdminHandler
	Session  *middleware.SessionMiddleware
}

func (rt *Router) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.Health.Health)
		r.Post("/auth/login", rt.Auth.Login)
		r.Post("/auth/logout", rt.Auth.Logout)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(rt.Session.RequireAuth)

			r.Get("/auth/me", rt.Auth.Me)
			r.Get("/articles/{site}", rt.Articles.List)
			r.Get("/ga/{site}", rt.Reports.GA)
			r.Get("/gsc/{site}", rt.Reports.GSC)
			r.Get("/summaries/{site}", rt.Reports.ListSummaries)

			// Admin-only surface.
			r.Group(func(r chi.Router) {
				r.Use(rt.Session.RequireAdmin)

				r.Post("/articles/sync/{site}", rt.Articles.Sync)
				r.Get("/articles/sync/{site}", rt.Articles.SyncStatus)
				r.Post("/summaries/save", rt.Reports.SaveSummary)
				r.Get("/notifications/{site}", rt.Admin.ListNotifications)
				r.Post("/notify", rt.Admin.Notify)

				r.Get("/users", rt.Admin.ListUsers)
				r.Post("/users", rt.Admin.CreateUser)
				r.Get("/users/{id}", rt.Admin.GetUser)
				r.Put("/users/{id}", rt.Admin.UpdateUser)
				r.Delete("/users/{id}", rt.Admin.DeleteUser)

				r.Post("/cache/clear", rt.Admin.ClearCache)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})

	return r
}
