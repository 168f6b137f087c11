package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"store-api/internal/apperr"
	"store-api/internal/respond"
)

const maxJSONBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type Handler struct {
	service *Service
	cookies CookiePolicy
}

func NewHandler(service *Service, cookies CookiePolicy) *Handler {
	return &Handler{service: service, cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body Registration
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Error(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), body)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, "user registered successfully", map[string]any{"user": user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Error(w, err)
		return
	}

	session, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.cookies.Set(w, session.RefreshToken, session.RefreshExpiresAt, h.service.RefreshTTL())
	respond.JSON(w, http.StatusOK, "login successful", map[string]any{
		"user":        session.User,
		"accessToken": session.AccessToken,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.service.Refresh(r.Context(), refreshTokenFromRequest(r))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "access token refreshed", map[string]any{"accessToken": access})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	loggedOut, err := h.service.Logout(r.Context(), refreshTokenFromRequest(r))
	h.cookies.Clear(w)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if !loggedOut {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respond.JSON(w, http.StatusOK, "logged out successfully", nil)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "users retrieved successfully", map[string]any{
		"users": users,
		"count": len(users),
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "user retrieved successfully", map[string]any{"user": user})
}

// UpdateSelf updates the authenticated caller. The {id} path segment is
// accepted for route compatibility but the identity comes from the gate.
func (h *Handler) UpdateSelf(w http.ResponseWriter, r *http.Request) {
	self, ok := UserFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Unauthorized("not authorized, no token found"))
		return
	}

	var body ProfileUpdate
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Error(w, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), self.ID, body)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "user updated successfully", map[string]any{"user": user})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.DeleteUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "user deleted successfully", map[string]any{"user": user})
}

func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *Handler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	user, err := h.service.SetBlocked(r.Context(), r.PathValue("id"), blocked)
	if err != nil {
		respond.Error(w, err)
		return
	}

	message := "user unblocked successfully"
	if blocked {
		message = "user blocked successfully"
	}
	respond.JSON(w, http.StatusOK, message, map[string]any{"user": user})
}

// decodeJSON reads a single JSON object into dst and runs its validate
// tags. Every failure is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperr.Validation("invalid json body")
	}

	if err := validate.Struct(dst); err != nil {
		return apperr.Validation(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
