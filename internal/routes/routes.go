package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Akram409/leafora-web-server/internal/handlers"
	"github.com/Akram409/leafora-web-server/internal/identity"
	"github.com/Akram409/leafora-web-server/internal/middleware"
	"github.com/Akram409/leafora-web-server/internal/services"
)

// Handlers bundles the wired handler set for route registration.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Admin    *handlers.AdminHandler
	Profile  *handlers.ProfileHandler
	Presence *handlers.PresenceHandler
}

// SetupRoutes registers the full route table. The admin group sits behind
// token + role checks, the profile group behind token checks only; login and
// token issuance stay open.
func SetupRoutes(r *chi.Mux, h Handlers, gateway identity.Gateway, revoker *services.RevocationService, users *services.UserService) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("Leafora Admin Server is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/auth/token", h.Auth.Token)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Auth.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(gateway, revoker, users))

			r.Post("/logout", h.Auth.AdminLogout)
			r.Get("/analytics", h.Admin.Analytics)

			r.Get("/users", h.Admin.ListUsers)
			r.Post("/users", h.Admin.CreateUser)
			r.Get("/users/{userId}", h.Admin.GetUser)
			r.Put("/users/{userId}", h.Admin.UpdateUser)
			r.Delete("/users/{userId}", h.Admin.DeleteUser)
			r.Put("/users/{userId}/subscription", h.Admin.UpdateSubscription)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireUser(gateway, revoker))

		r.Get("/profile", h.Profile.GetProfile)
		r.Put("/profile", h.Profile.UpdateProfile)
		r.Post("/profile/image", h.Profile.UploadProfileImage)
	})

	// WebSocket presence tracking authenticates inside the handler so the
	// token can also arrive via query parameter.
	r.Get("/ws/presence", h.Presence.Connect)
}
