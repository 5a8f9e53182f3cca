package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/api/respond"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/services"
)

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	service services.UserServiceProvider
	issuer  *auth.TokenIssuer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, issuer *auth.TokenIssuer) *UserHandler {
	return &UserHandler{service: service, issuer: issuer}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateMePayload defines the structure for profile updates. A non-empty
// password replaces the stored one after re-hashing.
type UpdateMePayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// RolePayload defines the structure for admin role changes.
type RolePayload struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// Register handles new user registration and issues the first token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := respond.Decode(r, &payload); err != nil {
		respond.ValidationError(w, err)
		return
	}
	if err := respond.Validate(payload); err != nil {
		respond.ValidationError(w, err)
		return
	}

	user, err := h.service.Register(payload.Name, payload.Email, payload.Password, payload.Role)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		respond.ServiceError(w, err)
		return
	}

	token, err := h.issuer.Generate(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

// Login handles user authentication and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := respond.Decode(r, &payload); err != nil {
		respond.ValidationError(w, err)
		return
	}
	if err := respond.Validate(payload); err != nil {
		respond.ValidationError(w, err)
		return
	}

	user, err := h.service.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		respond.ServiceError(w, err)
		return
	}

	token, err := h.issuer.Generate(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// GetMe returns the authenticated user's own record.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "could not resolve identity")
		return
	}

	user, err := h.service.GetByID(claims.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("User from token not found")
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// UpdateMe updates the authenticated user's own profile. Role is not part
// of the payload; it can only change through the admin route.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "could not resolve identity")
		return
	}

	var payload UpdateMePayload
	if err := respond.Decode(r, &payload); err != nil {
		respond.ValidationError(w, err)
		return
	}
	if err := respond.Validate(payload); err != nil {
		respond.ValidationError(w, err)
		return
	}

	user, err := h.service.Update(claims.UserID, payload.Name, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to update profile")
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// DeleteMe permanently removes the authenticated user's account.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "could not resolve identity")
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID); err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to delete account")
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, nil)
}

// List returns every user. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

// Get returns any user by id. Admin only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetByID(id)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// SetRole changes any user's role. Admin only.
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload RolePayload
	if err := respond.Decode(r, &payload); err != nil {
		respond.ValidationError(w, err)
		return
	}
	if err := respond.Validate(payload); err != nil {
		respond.ValidationError(w, err)
		return
	}

	user, err := h.service.SetRole(id, payload.Role)
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Failed to change role")
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// Delete removes any user by id. Admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, nil)
}
