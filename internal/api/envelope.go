package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the shared
// success/data/error envelope, the same shape response.JSON produces.
// Clients parse one structure regardless of which handler produced it.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return &response.Envelope{
			Success: false,
			Error:   apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	// Status arrives as a string code ("200", "404"); 2xx and 3xx succeed.
	success := len(status) == 3 && status[0] < '4'

	return &response.Envelope{
		Success: success,
		Data:    v,
	}, nil
}
