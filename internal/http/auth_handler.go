// Package http carries the JSON API surface: one handler struct per domain
// service, request DTOs validated at the edge, domain outcomes mapped onto
// statuses in errors.go.
package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"libraryapi/internal/httpx"
	"libraryapi/internal/member"
)

type AuthHandler struct {
	members *member.Service
}

func NewAuthHandler(members *member.Service) *AuthHandler {
	return &AuthHandler{members: members}
}

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,password_strength"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	u, err := h.members.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccessCreatedWithRequest(r, w, map[string]any{
		"id":       u.ID,
		"email":    u.Email,
		"username": u.Username,
		"role":     u.Role,
	})
}

// RegisterStaff provisions a LIBRARIAN account; only staff may call it.
func (h *AuthHandler) RegisterStaff(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	u, err := h.members.RegisterStaff(r.Context(), httpx.RoleFrom(r), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccessCreatedWithRequest(r, w, map[string]any{
		"id":       u.ID,
		"email":    u.Email,
		"username": u.Username,
		"role":     u.Role,
	})
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	token, u, err := h.members.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password", nil)
		return
	}

	httpx.JSONSuccessWithRequest(r, w, map[string]any{
		"access_token": token,
		"user": map[string]any{
			"id":       u.ID,
			"email":    u.Email,
			"username": u.Username,
			"role":     u.Role,
		},
	}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.members.GetByID(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccessWithRequest(r, w, map[string]any{
		"id":       u.ID,
		"email":    u.Email,
		"username": u.Username,
		"role":     u.Role,
	}, nil)
}
