package handlers

import (
	"net/http"

	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/service"
	"github.com/edutrack/edutrack/common/httputil"
	"github.com/edutrack/edutrack/common/logging"
)

type UserHandler struct {
	users  *service.UserService
	logger *logging.Logger
}

func NewUserHandler(users *service.UserService, logger *logging.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.UserEnvelope{User: user})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.UserEnvelope{User: user})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httputil.NoContent(w)
}
