// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/quickkiraana/kiraana/config"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/validate"
)

// JSON decodes r.Body into dest and validates it. The body is capped at
// MAX_BODY_BYTES. Every failure is an apperr Validation error carrying the
// first message.
func JSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Invalid(fmt.Sprintf("Request body too large (max %d bytes)", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return apperr.Invalid("Request body is required")
		default:
			return apperr.E(apperr.Validation, "Invalid JSON body", err)
		}
	}

	return Validate(dest)
}

// Validate runs struct-tag validation on v.
func Validate(v interface{}) error {
	if msg := validate.First(v); msg != "" {
		return apperr.Invalid(msg)
	}
	return nil
}
