package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"familylink/internal/models"
	"familylink/internal/security"
	"familylink/internal/service"
)

// Deps are the services the HTTP layer is built from
type Deps struct {
	Auth        *service.AuthService
	Parents     *service.ParentService
	Children    *service.ChildService
	Limiter     *security.RateLimiter
	CORSOrigins []string
	TrustProxy  bool
	StartedAt   time.Time
}

// NewRouter creates and configures the chi router
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if deps.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(Logging)
	r.Use(middleware.Recoverer)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limiter := deps.Limiter
	if limiter == nil {
		limiter = security.NewRateLimiter(10, time.Minute)
	}
	mw := NewMiddleware(deps.Auth, limiter)

	authHandler := NewAuthHandler(deps.Auth)
	parentHandler := NewParentHandler(deps.Parents)
	childHandler := NewChildHandler(deps.Children)

	r.Get("/health", Health(deps.StartedAt))

	r.Route("/auth", func(r chi.Router) {
		r.With(mw.RateLimit).Post("/register", authHandler.Register)
		r.With(mw.RateLimit).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/parent-code/{code}", authHandler.ValidateParentCode)
		r.With(mw.RequireAuth).Get("/me", authHandler.Me)
	})

	r.Route("/parent", func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Use(mw.RequireRole(models.RoleParent))

		r.Get("/dashboard", parentHandler.Dashboard)
		r.Get("/code", parentHandler.GetCode)
		r.Post("/code/generate", parentHandler.GenerateCode)
		r.Get("/profile", parentHandler.GetProfile)
		r.Put("/profile", parentHandler.UpdateProfile)

		r.Route("/children", func(r chi.Router) {
			r.Get("/", parentHandler.ListChildren)
			r.Post("/", parentHandler.AddChild)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", parentHandler.GetChild)
				r.Put("/", parentHandler.UpdateChild)
				r.Delete("/", parentHandler.RemoveChild)
			})
		})
	})

	r.Route("/child", func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Use(mw.RequireRole(models.RoleChild))

		r.Get("/dashboard", childHandler.Dashboard)
		r.Get("/profile", childHandler.GetProfile)
		r.Put("/profile", childHandler.UpdateProfile)
		r.Get("/parent", childHandler.GetParent)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
