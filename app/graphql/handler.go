package graphql

import (
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/decorhub/decorhub/pkg/ctx"
)

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string                 `json:"query"         validate:"required"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler serves POST /graphql. Query errors are reported in the result's
// "errors" array with status 200, as GraphQL clients expect.
func Handler(schema graphql.Schema) ctx.HandlerFunc {
	return func(c *ctx.Context) {
		var req Request
		if err := c.Bind(&req); err != nil {
			c.Fail(err)
			return
		}
		res := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})
		c.JSON(http.StatusOK, res)
	}
}

// Normalize drops an empty variables object.
func (r *Request) Normalize() {
	if len(r.Variables) == 0 {
		r.Variables = nil
	}
}
