package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/response"
)

type UploadController struct {
	uploads  *services.UploadService
	maxBytes int64
}

func NewUploadController(uploads *services.UploadService, maxBytes int64) *UploadController {
	return &UploadController{uploads: uploads, maxBytes: maxBytes}
}

// Upload handles POST /api/upload with a multipart "image" field.
func (c *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	// Room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, c.maxBytes+64<<10)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Fail(w, r, apperr.Invalid(fmt.Sprintf("File too large (max %d bytes)", c.maxBytes)))
			return
		}
		response.Fail(w, r, apperr.Invalid("No file uploaded."))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, c.maxBytes+1))
	if err != nil {
		response.Fail(w, r, apperr.E(apperr.Validation, "Could not read upload", err))
		return
	}
	if int64(len(data)) > c.maxBytes {
		response.Fail(w, r, apperr.Invalid(fmt.Sprintf("File too large (max %d bytes)", c.maxBytes)))
		return
	}

	url, err := c.uploads.Upload(r.Context(), header.Filename, data)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, map[string]string{"url": url})
}
