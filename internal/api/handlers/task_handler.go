package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/api/respond"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/services"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskPayload defines the structure for task creation.
type CreateTaskPayload struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateTaskPayload defines the structure for task updates. Absent fields
// keep their current value.
type UpdateTaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

// List returns the authenticated user's tasks, served from the per-user
// cache when it is warm.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "could not resolve identity")
		return
	}

	payload, err := h.service.ListForOwner(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to list tasks")
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, payload)
}

// Get returns one of the authenticated user's tasks.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "could not resolve identity")
		return
	}

	task, err := h.service.GetForOwner(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, task)
}

// Create adds a new task owned by the authenticated user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "could not resolve identity")
		return
	}

	var payload CreateTaskPayload
	if err := respond.Decode(r, &payload); err != nil {
		respond.ValidationError(w, err)
		return
	}
	if err := respond.Validate(payload); err != nil {
		respond.ValidationError(w, err)
		return
	}

	task, err := h.service.Create(r.Context(), claims.UserID, services.TaskInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to create task")
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, task)
}

// Update modifies one of the authenticated user's tasks.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "could not resolve identity")
		return
	}

	var payload UpdateTaskPayload
	if err := respond.Decode(r, &payload); err != nil {
		respond.ValidationError(w, err)
		return
	}
	if err := respond.Validate(payload); err != nil {
		respond.ValidationError(w, err)
		return
	}

	task, err := h.service.UpdateForOwner(r.Context(), claims.UserID, chi.URLParam(r, "id"), services.TaskInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
	})
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, task)
}

// Delete permanently removes one of the authenticated user's tasks.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "could not resolve identity")
		return
	}

	if err := h.service.DeleteForOwner(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, nil)
}

// ListAll returns every task in the system. Admin only.
func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list all tasks")
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, tasks)
}

// DeleteAny removes any task regardless of owner. Admin only.
func (h *TaskHandler) DeleteAny(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAny(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, nil)
}
