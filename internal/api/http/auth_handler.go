package http

import (
	"net/http"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/service"

	"github.com/gorilla/mux"
)

type AuthHandler struct {
	authSvc service.AuthService
}

func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type signupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Nickname   string `json:"nickname"`
	GameID     string `json:"game_id"`
	ProfileURL string `json:"profile_url"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type firebaseLoginRequest struct {
	IDToken string `json:"id_token"`
}

type authResponse struct {
	User *domain.User `json:"user"`
	*service.TokenPair
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, pair, err := h.authSvc.Signup(r.Context(), service.SignupInput{
		Email:      req.Email,
		Password:   req.Password,
		Nickname:   req.Nickname,
		GameID:     req.GameID,
		ProfileURL: req.ProfileURL,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: user, TokenPair: pair})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, pair, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, TokenPair: pair})
}

func (h *AuthHandler) LoginWithFirebase(w http.ResponseWriter, r *http.Request) {
	var req firebaseLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, pair, err := h.authSvc.LoginWithFirebase(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, TokenPair: pair})
}

// Refresh expects the refresh token as the bearer token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.authSvc.RefreshToken(r.Context(), extractToken(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) CheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := mux.Vars(r)["nickname"]
	ok, err := h.authSvc.NicknameAvailable(r.Context(), nickname)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nickname": nickname, "available": ok})
}
