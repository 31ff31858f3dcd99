// Package server exposes the reminder core over a loopback HTTP JSON API
// for the desktop front-end to call.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"remindd/internal/apperr"
	"remindd/internal/service"
)

// New returns the HTTP handler for the reminder API.
func New(svc *service.ReminderService) http.Handler {
	s := &server{svc: svc}

	router := chi.NewRouter()
	router.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)

		r.Get("/groups", s.handleListGroups)
		r.Post("/groups", s.handleCreateGroup)
		r.Delete("/groups/{id}", s.handleDeleteGroup)

		r.Get("/reminders", s.handleListReminders)
		r.Post("/reminders", s.handleCreateReminder)
		r.Get("/reminders/{id}", s.handleGetReminder)
		r.Patch("/reminders/{id}", s.handleUpdateReminder)
		r.Delete("/reminders/{id}", s.handleDeleteReminder)
		r.Post("/reminders/{id}/cancel", s.handleCancelReminder)
		r.Post("/reminders/{id}/pause", s.handlePauseReminder)
		r.Post("/reminders/{id}/resume", s.handleResumeReminder)
	})
	return router
}

type server struct {
	svc *service.ReminderService
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]groupDTO, 0, len(groups))
	for _, g := range groups {
		dtos = append(dtos, toGroupDTO(g))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decode(w, r, &req) {
		return
	}
	group, err := s.svc.CreateGroup(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupDTO(*group))
}

func (s *server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"
	reminders, err := s.svc.ListReminders(r.Context(), includeDeleted)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]reminderDTO, 0, len(reminders))
	for _, rem := range reminders {
		dtos = append(dtos, toReminderDTO(rem))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if !decode(w, r, &req) {
		return
	}
	desc, err := req.Recurrence.toDescriptor()
	if err != nil {
		writeError(w, err)
		return
	}
	reminder, err := s.svc.CreateReminder(r.Context(), service.ReminderInput{
		Title:       req.Title,
		Color:       req.Color,
		GroupID:     req.GroupID,
		Description: req.Description,
		StartAt:     req.StartAt,
		Recurrence:  desc,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReminderDTO(*reminder))
}

func (s *server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	reminder, err := s.svc.GetReminder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderDTO(*reminder))
}

func (s *server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	var req updateReminderRequest
	if !decode(w, r, &req) {
		return
	}
	patch := service.ReminderPatch{
		Title:       req.Title,
		Color:       req.Color,
		Description: req.Description,
		StartAt:     req.StartAt,
	}
	if req.Recurrence != nil {
		desc, err := req.Recurrence.toDescriptor()
		if err != nil {
			writeError(w, err)
			return
		}
		patch.Recurrence = &desc
	}
	reminder, err := s.svc.UpdateReminder(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderDTO(*reminder))
}

func (s *server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCancelReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CancelReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handlePauseReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.PauseReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleResumeReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResumeReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Error: errorBody{Code: "bad_request", Message: "malformed JSON body"},
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var (
		status = http.StatusInternalServerError
		code   = "internal"
	)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, apperr.ErrInvalidExpression):
		status, code = http.StatusBadRequest, "invalid_expression"
	case errors.Is(err, apperr.ErrStoreIO):
		status, code = http.StatusServiceUnavailable, "store_unavailable"
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: err.Error()}})
}
