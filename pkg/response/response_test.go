package response_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/response"
)

func TestFailMapsKinds(t *testing.T) {
	logger.Discard()

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{apperr.NotFoundf("Order not found"), http.StatusNotFound, `{"msg":"Order not found"}`},
		{apperr.Forbiddenf("User not authorized"), http.StatusUnauthorized, `{"msg":"User not authorized"}`},
		{apperr.Invalid("customerPhone is required"), http.StatusBadRequest, `{"msg":"customerPhone is required"}`},
		{errors.New("mongo: server selection timeout"), http.StatusInternalServerError, `{"msg":"Server Error"}`},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		response.Fail(rec, req, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		assert.JSONEq(t, tc.body, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Created(rec, map[string]string{"id": "01J"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"01J"}`, rec.Body.String())
}
