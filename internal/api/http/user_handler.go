package http

import (
	"net/http"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/service"

	"github.com/gorilla/mux"
)

// UserHandler serves profile, admin user management, settings,
// notifications and dashboard stats.
type UserHandler struct {
	userSvc     service.UserService
	settingsSvc service.SettingsService
	noteSvc     service.NotificationService
	statsSvc    service.StatsService
}

func NewUserHandler(userSvc service.UserService, settingsSvc service.SettingsService, noteSvc service.NotificationService, statsSvc service.StatsService) *UserHandler {
	return &UserHandler{userSvc: userSvc, settingsSvc: settingsSvc, noteSvc: noteSvc, statsSvc: statsSvc}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userSvc.GetProfile(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.ListUsers(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.UserWithRole{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role domain.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.userSvc.SetRole(r.Context(), userID(r.Context()), mux.Vars(r)["uid"], req.Role); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.userSvc.DeleteAccount(r.Context(), userID(r.Context()), mux.Vars(r)["uid"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.userSvc.RegisterDeviceToken(r.Context(), userID(r.Context()), req.Token); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settingsSvc.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.settingsSvc.UpdateSettings(r.Context(), userID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *UserHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page := queryInt32(r, "page", 1)
	size := queryInt32(r, "page_size", 20)
	notes, total, err := h.noteSvc.GetNotifications(r.Context(), userID(r.Context()), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes, "total": total})
}

func (h *UserHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.noteSvc.MarkAsRead(r.Context(), userID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats is admin-only.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	admin, err := h.userSvc.IsAdmin(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !admin {
		writeError(w, r, service.ErrForbidden)
		return
	}
	stats, err := h.statsSvc.GetDashboardStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
