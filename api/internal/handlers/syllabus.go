package handlers

import (
	"net/http"

	"github.com/edutrack/edutrack/api/internal/middleware"
	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/service"
	"github.com/edutrack/edutrack/common/httputil"
	"github.com/edutrack/edutrack/common/logging"
)

type SyllabusHandler struct {
	syllabi *service.SyllabusService
	logger  *logging.Logger
}

func NewSyllabusHandler(syllabi *service.SyllabusService, logger *logging.Logger) *SyllabusHandler {
	return &SyllabusHandler{syllabi: syllabi, logger: logger}
}

// Create stores a syllabus and enrols the caller on it.
func (h *SyllabusHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, r, h.logger, service.ErrNotAuthenticated)
		return
	}

	var req models.CreateSyllabusRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	syllabus, err := h.syllabi.CreateSyllabus(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.SyllabusEnvelope{Syllabus: syllabus})
}

func (h *SyllabusHandler) Get(w http.ResponseWriter, r *http.Request) {
	syllabus, err := h.syllabi.GetSyllabus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.SyllabusEnvelope{Syllabus: syllabus})
}

// List returns the caller's syllabi, or all of them for admins.
func (h *SyllabusHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, r, h.logger, service.ErrNotAuthenticated)
		return
	}

	syllabi, err := h.syllabi.ListSyllabiForUser(r.Context(), user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.SyllabusListResponse{Syllabuses: syllabi})
}

func (h *SyllabusHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSyllabusRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	syllabus, err := h.syllabi.UpdateSyllabus(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.SyllabusEnvelope{Syllabus: syllabus})
}

func (h *SyllabusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.syllabi.DeleteSyllabus(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httputil.NoContent(w)
}
