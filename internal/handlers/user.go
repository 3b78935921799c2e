package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/accountd/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// UserHandler provides HTTP handlers for user accounts.
type UserHandler struct {
	userService *services.UserService
	logger      *slog.Logger
}

// NewUserHandler constructs a handler with the provided service.
func NewUserHandler(userService *services.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, logger *slog.Logger) {
	handler := NewUserHandler(userService, logger)

	r.Post("/", handler.CreateUser)
	r.Get("/", handler.ListUsers)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Put("/", handler.UpdateUser)
		r.Delete("/", handler.DeleteUser)
	})
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest leaves Name nil when the field is absent or null.
type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Email       string  `json:"email"`
	OldPassword string  `json:"old_password"`
	NewPassword string  `json:"new_password"`
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.userService.Create(r.Context(), services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		h.writeServiceError(w, r, err, "failed to create user")
		return
	}

	writeMessage(w, http.StatusCreated, "user created")
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch user")
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update user")
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.Update(r.Context(), id, services.UpdateUserInput{
		Name:        req.Name,
		Email:       req.Email,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		h.writeServiceError(w, r, err, "failed to update user")
		return
	}

	writeMessage(w, http.StatusOK, "user updated")
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to delete user")
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "failed to delete user")
		return
	}

	writeMessage(w, http.StatusOK, "user deleted")
}

// writeServiceError maps service errors to statuses. Infrastructure details
// are logged and replaced by fallback.
func (h *UserHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	default:
		h.logger.ErrorContext(r.Context(), fallback, slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
