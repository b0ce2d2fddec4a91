// Package response writes the API's JSON envelopes. Success payloads
// ride under "data", lists add "meta", and failures carry a structured
// "error" object, so clients can switch on shape instead of status text.
package response

import (
	"encoding/json"
	"net/http"
)

// PaginationMeta describes the window a Collection response covers.
type PaginationMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

// JSON answers 200 with the payload under "data".
func JSON(w http.ResponseWriter, data any) {
	success(w, http.StatusOK, data)
}

// Created answers 201 with the payload under "data".
func Created(w http.ResponseWriter, data any) {
	success(w, http.StatusCreated, data)
}

// Accepted answers 202 with the payload under "data".
func Accepted(w http.ResponseWriter, data any) {
	success(w, http.StatusAccepted, data)
}

// NoContent answers 204 with an empty body, the one success that skips
// the data envelope.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Collection wraps a list payload together with its pagination window.
func Collection(w http.ResponseWriter, data any, meta PaginationMeta) {
	encode(w, http.StatusOK, struct {
		Data any            `json:"data"`
		Meta PaginationMeta `json:"meta"`
	}{data, meta})
}

// Error writes the structured error envelope. Code is a stable
// machine-readable constant; message is for humans and may change.
func Error(w http.ResponseWriter, status int, code, message string, details any) {
	type errorBody struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details,omitempty"`
	}
	encode(w, status, struct {
		Error errorBody `json:"error"`
	}{errorBody{Code: code, Message: message, Details: details}})
}

func success(w http.ResponseWriter, status int, data any) {
	encode(w, status, struct {
		Data any `json:"data"`
	}{data})
}

func encode(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already on the wire; an encode failure here
	// cannot be reported to the client anymore.
	_ = json.NewEncoder(w).Encode(v)
}
