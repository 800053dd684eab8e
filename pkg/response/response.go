// Package response writes JSON bodies for the public API.
//
// Successful responses carry the resource itself; failures carry a single
// human-readable {"msg": "..."} and never internal details.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/logger"
)

// Msg is the error / acknowledgement body.
type Msg struct {
	Msg string `json:"msg"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// OK sends 200 with v.
func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

// Created sends 201 with v.
func Created(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusCreated, v)
}

// Message sends {"msg": msg} with status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Msg{Msg: msg})
}

// Fail maps err to its status code and writes {"msg"}. Server-side
// failures are logged with the request-scoped logger.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()

	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error("request failed",
			"kind", kind.String(),
			"error", err,
			"path", r.URL.Path,
		)
	}

	Message(w, status, apperr.Message(err))
}

// Unauthorized sends 401 with msg.
func Unauthorized(w http.ResponseWriter, msg string) {
	Message(w, http.StatusUnauthorized, msg)
}

// NotFound sends 404.
func NotFound(w http.ResponseWriter) {
	Message(w, http.StatusNotFound, "Not found")
}
