package http

import (
	"context"
	"net/http"
	"time"

	"clan-rental-backend/internal/metrics"
	"clan-rental-backend/internal/security"
	"clan-rental-backend/internal/service"
	"clan-rental-backend/internal/storage"

	"github.com/gorilla/mux"
)

// Services bundles everything the HTTP API calls into.
type Services struct {
	Auth          service.AuthService
	Items         service.ItemService
	Categories    service.CategoryService
	Rentals       service.RentalService
	Chat          service.ChatService
	Users         service.UserService
	Settings      service.SettingsService
	Notifications service.NotificationService
	Images        service.ImageStorageService
	Stats         service.StatsService
}

// Pinger reports backend health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterOptions struct {
	Services     Services
	TokenManager security.TokenManager
	Storage      storage.StorageInterface
	AllowedTypes []string
	DB           Pinger
}

// NewRouter wires every route by name; the auth middleware looks the name up
// in the endpoint security table.
func NewRouter(opts RouterOptions) *mux.Router {
	s := opts.Services
	auth := NewAuthHandler(s.Auth)
	items := NewItemHandler(s.Items, s.Categories, s.Images)
	rentals := NewRentalHandler(s.Rentals)
	chat := NewChatHandler(s.Chat)
	users := NewUserHandler(s.Users, s.Settings, s.Notifications, s.Stats)

	r := mux.NewRouter()
	r.Use(Recoverer, RequestLogger, metrics.InstrumentHandler, NewAuthMiddleware(opts.TokenManager).Middleware)

	r.HandleFunc("/healthz", healthHandler(opts.DB)).Methods(http.MethodGet).Name("health")
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name("metrics")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/signup", auth.Signup).Methods(http.MethodPost).Name("auth.signup")
	api.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost).Name("auth.login")
	api.HandleFunc("/auth/firebase", auth.LoginWithFirebase).Methods(http.MethodPost).Name("auth.firebase")
	api.HandleFunc("/auth/nickname/{nickname}", auth.CheckNickname).Methods(http.MethodGet).Name("auth.nickname.check")
	api.HandleFunc("/auth/refresh", auth.Refresh).Methods(http.MethodPost).Name("auth.refresh")
	api.HandleFunc("/terms", rentals.Terms).Methods(http.MethodGet).Name("terms.get")

	if opts.Storage != nil {
		st := NewStorageHandler(opts.Storage, opts.AllowedTypes)
		api.HandleFunc("/storage/upload/{token}", st.Upload).Methods(http.MethodPut).Name("storage.mock.upload")
		api.HandleFunc("/storage/download", st.Download).Methods(http.MethodGet).Name("storage.mock.download")
	}

	api.HandleFunc("/items", items.List).Methods(http.MethodGet).Name("items.list")
	api.HandleFunc("/items", items.Create).Methods(http.MethodPost).Name("items.create")
	api.HandleFunc("/items/{id:[0-9]+}", items.Get).Methods(http.MethodGet).Name("items.get")
	api.HandleFunc("/items/{id:[0-9]+}", items.Update).Methods(http.MethodPut).Name("items.update")
	api.HandleFunc("/items/{id:[0-9]+}", items.Delete).Methods(http.MethodDelete).Name("items.delete")
	api.HandleFunc("/categories", items.ListCategories).Methods(http.MethodGet).Name("categories.list")
	api.HandleFunc("/categories", items.CreateCategory).Methods(http.MethodPost).Name("categories.create")
	api.HandleFunc("/categories/{id:[0-9]+}", items.DeleteCategory).Methods(http.MethodDelete).Name("categories.delete")
	api.HandleFunc("/images/upload-url", items.UploadURL).Methods(http.MethodPost).Name("images.upload_url")

	api.HandleFunc("/rentals", rentals.Create).Methods(http.MethodPost).Name("rentals.create")
	api.HandleFunc("/rentals", rentals.List).Methods(http.MethodGet).Name("rentals.list")
	api.HandleFunc("/rentals/mine", rentals.ListMine).Methods(http.MethodGet).Name("rentals.mine")
	api.HandleFunc("/rentals/{id:[0-9]+}", rentals.Get).Methods(http.MethodGet).Name("rentals.get")
	api.HandleFunc("/rentals/{id:[0-9]+}", rentals.Delete).Methods(http.MethodDelete).Name("rentals.delete")
	api.HandleFunc("/rentals/{id:[0-9]+}/approve", rentals.Approve).Methods(http.MethodPost).Name("rentals.approve")
	api.HandleFunc("/rentals/{id:[0-9]+}/complete", rentals.Complete).Methods(http.MethodPost).Name("rentals.complete")
	api.HandleFunc("/rentals/{id:[0-9]+}/cancel", rentals.Cancel).Methods(http.MethodPost).Name("rentals.cancel")

	api.HandleFunc("/rentals/{id:[0-9]+}/messages", chat.List).Methods(http.MethodGet).Name("messages.list")
	api.HandleFunc("/rentals/{id:[0-9]+}/messages", chat.Send).Methods(http.MethodPost).Name("messages.send")
	api.HandleFunc("/rentals/{id:[0-9]+}/messages/stream", chat.Stream).Methods(http.MethodGet).Name("messages.stream")

	api.HandleFunc("/users/me", users.Me).Methods(http.MethodGet).Name("users.me")
	api.HandleFunc("/users/me/device-tokens", users.RegisterDeviceToken).Methods(http.MethodPost).Name("users.device_token")
	api.HandleFunc("/users", users.List).Methods(http.MethodGet).Name("users.list")
	api.HandleFunc("/users/{uid}/role", users.SetRole).Methods(http.MethodPut).Name("users.set_role")
	api.HandleFunc("/users/{uid}", users.Delete).Methods(http.MethodDelete).Name("users.delete")

	api.HandleFunc("/settings", users.GetSettings).Methods(http.MethodGet).Name("settings.get")
	api.HandleFunc("/settings", users.UpdateSettings).Methods(http.MethodPut).Name("settings.update")
	api.HandleFunc("/notifications", users.ListNotifications).Methods(http.MethodGet).Name("notifications.list")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", users.MarkNotificationRead).Methods(http.MethodPost).Name("notifications.read")
	api.HandleFunc("/stats", users.Stats).Methods(http.MethodGet).Name("stats.get")

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
