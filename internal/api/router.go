package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/smarttools-be/internal/api/handlers"
	"github.com/isdelr/smarttools-be/internal/auth"
	"github.com/isdelr/smarttools-be/internal/httputil"
	"github.com/isdelr/smarttools-be/internal/metrics"
	"github.com/isdelr/smarttools-be/internal/services"
	"github.com/jmoiron/sqlx"
)

// Deps holds everything the router wires into handlers.
type Deps struct {
	DB            *sqlx.DB
	Authenticator *auth.Authenticator
	Accounts      services.AccountServiceProvider
	Ledger        services.LedgerServiceProvider
	Tools         services.ToolServiceProvider
	Tasks         services.TaskServiceProvider
	Posts         services.PostServiceProvider
	Comments      services.CommentServiceProvider
	Images        services.ImageServiceProvider
	Admin         services.AdminServiceProvider
	Events        services.EventServiceProvider

	UploadDir       string
	CORSOrigins     []string
	LoginRatePerMin int
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limiter, err := NewRateLimiter(d.LoginRatePerMin)
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(d.Accounts, d.Authenticator)
	ledgerHandler := handlers.NewLedgerHandler(d.Ledger)
	toolHandler := handlers.NewToolHandler(d.Tools, d.Images)
	taskHandler := handlers.NewTaskHandler(d.Tasks)
	postHandler := handlers.NewPostHandler(d.Posts, d.Comments)
	adminHandler := handlers.NewAdminHandler(d.Admin, d.Tools, d.Comments, d.Images)
	eventHandler := handlers.NewEventHandler(d.Events)

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir)))
	r.Handle("/uploads/*", uploads)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", healthz(d.DB))
		r.Handle("/metrics", metrics.Handler())

		r.Group(func(r chi.Router) {
			r.Use(d.Authenticator.Middleware)

			r.With(limiter.Handler).Post("/register", accountHandler.Register)
			r.With(limiter.Handler).Post("/login", accountHandler.Login)
			r.Post("/logout", accountHandler.Logout)

			r.Get("/tools", toolHandler.List)
			r.Get("/leaderboard", ledgerHandler.Leaderboard)
			r.Get("/images", toolHandler.Displayed)

			r.Get("/posts", postHandler.GetAll)
			r.Get("/posts/{id}", postHandler.Get)
			r.Get("/posts/{id}/comments", postHandler.GetComments)

			// Authenticated endpoints
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)

				r.Get("/profile", accountHandler.Profile)
				r.Put("/profile", accountHandler.UpdateProfile)
				r.Get("/users/{id}", accountHandler.GetUser)
				r.Get("/points/history", ledgerHandler.History)

				r.Post("/tools/user_image", toolHandler.UploadImage)
				r.Post("/tools/{key}", toolHandler.Invoke)

				r.Route("/tasks", func(r chi.Router) {
					r.Get("/", taskHandler.GetAll)
					r.Post("/", taskHandler.Create)
					r.Put("/{id}/complete", taskHandler.Complete)
					r.Delete("/{id}", taskHandler.Delete)
				})

				r.Post("/posts/{id}/comments", postHandler.CreateComment)
				r.Put("/comments/{id}", postHandler.UpdateComment)
				r.Delete("/comments/{id}", postHandler.DeleteComment)
			})

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Post("/posts", postHandler.Create)
				r.Put("/posts/{id}", postHandler.Update)
				r.Delete("/posts/{id}", postHandler.Delete)

				r.Route("/admin", func(r chi.Router) {
					r.Get("/dashboard", adminHandler.Dashboard)
					r.Get("/analytics", adminHandler.Analytics)
					r.Get("/events", eventHandler.GetRecent)
					r.Post("/cleanup", adminHandler.Cleanup)

					r.Get("/users", adminHandler.Users)
					r.Put("/users/{id}/toggle-admin", adminHandler.ToggleAdmin)
					r.Put("/users/{id}/points", adminHandler.SetPoints)
					r.Delete("/users/{id}", adminHandler.DeleteUser)

					r.Get("/tools", adminHandler.Tools)
					r.Put("/tools/{id}", adminHandler.UpdateTool)

					r.Get("/comments", adminHandler.Comments)
					r.Put("/comments/{id}/approval", adminHandler.SetApproval)

					r.Get("/images", adminHandler.Images)
					r.Put("/images/{id}/approve", adminHandler.ApproveImage)
					r.Delete("/images/{id}", adminHandler.DeleteImage)
				})
			})
		})
	})

	return r, nil
}

func healthz(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
