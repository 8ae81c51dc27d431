package dto

import "time"

// ErrorResponse is the JSON body of every non-2xx API response.
//
// Fields:
//   - Message: short, client-facing description.
//   - ErrorDetails: underlying error text, if any.
//   - Timestamp: when the error was produced (UTC).
//   - RequestID: the X-Request-ID of the failed request, for log lookup.
type ErrorResponse struct {
	Message      string    `json:"message" example:"no valid data found in the response"`
	ErrorDetails string    `json:"error,omitempty" example:"Invalid API call."`
	Timestamp    time.Time `json:"timestamp" example:"2023-11-03T20:00:00Z"`
	RequestID    string    `json:"request_id,omitempty" example:"3f1c2d9e-8a4b-4c1e-9f0a-2b7d6e5c4a31"`
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse stamped with the current time.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

// WithRequestID returns a copy of e tagged with id.
func (e ErrorResponse) WithRequestID(id string) ErrorResponse {
	e.RequestID = id
	return e
}
