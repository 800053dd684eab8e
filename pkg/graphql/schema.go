// Package graphql serves a graphql-go schema over HTTP.
package graphql

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/quickkiraana/kiraana/config"
	"github.com/quickkiraana/kiraana/pkg/response"
)

// NewSchema creates a read-only schema from the provided root query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler executes POSTed queries against schema. Malformed requests get
// 400; resolver errors are reported in the result's errors list.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes())

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			msg := "Invalid JSON body"
			if errors.Is(err, io.EOF) {
				msg = "Request body is required"
			}
			response.Message(w, http.StatusBadRequest, msg)
			return
		}
		if req.Query == "" {
			response.Message(w, http.StatusBadRequest, "query is required")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})

		status := http.StatusOK
		if result.Data == nil && result.HasErrors() {
			// Parse and validation failures never reach a resolver.
			status = http.StatusBadRequest
		}
		response.JSON(w, status, result)
	}
}
