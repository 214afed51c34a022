package auth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ikk-contest/backend/httpjson"
	"github.com/ikk-contest/backend/logger"
)

type AuthHttpHandler struct {
	admin  *AdminAuth
	jwtKey []byte
}

func NewAuthHttpHandler(admin *AdminAuth, jwtKey []byte) *AuthHttpHandler {
	return &AuthHttpHandler{admin: admin, jwtKey: jwtKey}
}

// RegisterRoutes expects the JWT middleware to be installed on r.
func (h *AuthHttpHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions/anonymous", h.AnonymousSession)
	r.Post("/admin/login", h.AdminLogin)
}

type sessionResponse struct {
	Token string `json:"token,omitempty"`
	UID   string `json:"uid"`
}

// AnonymousSession issues a session token. A caller that already holds a
// valid session gets its uid back and no new token.
func (h *AuthHttpHandler) AnonymousSession(w http.ResponseWriter, r *http.Request) {
	if uid, ok := SessionUID(r.Context()); ok {
		httpjson.WriteSuccessJson(w, sessionResponse{UID: uid})
		return
	}

	token, claims, err := GenerateAnonymousJWT(h.jwtKey)
	if err != nil {
		err = fmt.Errorf("failed to generate JWT: %w", err)
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}
	httpjson.WriteCreatedJson(w, sessionResponse{Token: token, UID: claims.UID})
}

func (h *AuthHttpHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	token, err := h.admin.Login(r.Context(), request.Username, request.Password)
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}

	httpjson.WriteSuccessJson(w, token)
}
