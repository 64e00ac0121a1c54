package httpserver

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type notFoundBody struct {
	Error    string `json:"error"`
	ActionID int64  `json:"actionId"`
}

type missingFieldsBody struct {
	Error    string          `json:"error"`
	Required []string        `json:"required"`
	Received map[string]bool `json:"received,omitempty"`
}

type invalidTypesBody struct {
	Error    string            `json:"error"`
	Expected map[string]string `json:"expected"`
}

type validationBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type endpointNotFoundBody struct {
	Error              string   `json:"error"`
	Message            string   `json:"message"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

type internalErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type rootBody struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Endpoints map[string]string `json:"endpoints"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
