package httpserver

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/eco-actions/internal/errs"
	"github.com/and161185/eco-actions/internal/service"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootBody{
		Message:   "Sustainability Actions API is running!",
		Version:   s.opts.Version,
		Timestamp: s.timestamp(),
		Endpoints: map[string]string{"actions": "/api/actions"},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, endpointNotFoundBody{
		Error:              "Endpoint not found",
		Message:            "The requested endpoint " + r.URL.RequestURI() + " does not exist",
		AvailableEndpoints: AvailableEndpoints,
	})
}

// GET /api/actions
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	actions, err := s.actions.List(r.Context())
	if err != nil {
		s.internal(w, r, "Failed to retrieve sustainability actions", err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

// POST /api/actions
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if !body.complete() {
		writeJSON(w, http.StatusBadRequest, missingFieldsBody{
			Error:    "Missing required fields",
			Required: requiredFields,
			Received: body.receivedAll(),
		})
		return
	}
	if body.badType {
		writeInvalidTypes(w)
		return
	}

	a, err := s.actions.Create(r.Context(), body.input())
	if err != nil {
		s.serviceError(w, r, 0, "Failed to create sustainability action", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// PUT /api/actions/{id}
func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if !body.complete() {
		writeJSON(w, http.StatusBadRequest, missingFieldsBody{
			Error:    "Missing required fields",
			Required: requiredFields,
		})
		return
	}
	if body.badType {
		writeInvalidTypes(w)
		return
	}

	a, err := s.actions.Replace(r.Context(), id, body.input())
	if err != nil {
		s.serviceError(w, r, id, "Failed to update sustainability action", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// PATCH /api/actions/{id}
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if body.badType {
		writeInvalidTypes(w)
		return
	}

	a, err := s.actions.Patch(r.Context(), id, body.patch())
	if err != nil {
		s.serviceError(w, r, id, "Failed to update sustainability action", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DELETE /api/actions/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	res, err := s.actions.Delete(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, id, "Failed to delete sustainability action", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := service.ParseID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid action ID format"})
		return 0, false
	}
	return id, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (actionBody, bool) {
	body, err := decodeActionBody(r)
	if err != nil {
		var be *bodyError
		if errors.As(err, &be) {
			writeJSON(w, be.status, errorBody{Error: be.msg})
			return body, false
		}
		s.internal(w, r, "Failed to read request", err)
		return body, false
	}
	return body, true
}

func writeInvalidTypes(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, invalidTypesBody{Error: "Invalid data types", Expected: expectedTypes})
}

// serviceError maps service sentinels to statuses; anything else is a 500 with failMsg.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, id int64, failMsg string, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, validationBody{Error: "Validation failed", Fields: ve.Fields})
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody{Error: "Sustainability action not found", ActionID: id})
	case errors.Is(err, errs.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid action ID format"})
	default:
		s.internal(w, r, failMsg, err)
	}
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestID(r.Context())),
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg})
}
