package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped whenever the envelope shape changes.
// Clients check it before unwrapping data.
const envelopeVersion = 1

// Envelope is the response wrapper every endpoint produces.
// Exactly one of Data and Error is set.
type Envelope struct {
	V       int       `json:"v" doc:"Envelope schema version"`
	Success bool      `json:"success" doc:"Whether the request succeeded"`
	Data    any       `json:"data,omitempty" doc:"Response payload on success"`
	Error   *APIError `json:"error,omitempty" doc:"Error payload on failure"`
}

// EnvelopeTransformer wraps every response body in the standard envelope.
// Registered on the huma config so handlers return bare payloads.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return &Envelope{V: envelopeVersion, Success: false, Error: apiErr}, nil
	}
	if errModel, ok := v.(*huma.ErrorModel); ok {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error: &APIError{
				status:  errModel.Status,
				Code:    statusToCode(errModel.Status),
				Message: errModel.Title,
				Details: errModel.Errors,
			},
		}, nil
	}
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		return &Envelope{V: envelopeVersion, Success: false, Error: &APIError{Message: "request failed"}}, nil
	}
	return &Envelope{V: envelopeVersion, Success: true, Data: v}, nil
}
