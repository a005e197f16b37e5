package model

// StandardResponse is the uniform envelope returned by the query surface.
// Success and failure are both carried inside the envelope; the transport
// status is always 200.
type StandardResponse struct {
	Data  *EventList `json:"data,omitempty"`
	Error *APIError  `json:"error,omitempty"`
}

// EventList wraps the ordered event snapshots of a range query.
type EventList struct {
	Events []Event `json:"events"`
}

// APIError carries a caller-safe error code and message. Underlying causes are
// logged server-side and never placed here.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewDataResponse builds a success envelope. A nil slice is normalized to an
// empty list so callers always find data.events.
func NewDataResponse(events []Event) *StandardResponse {
	if events == nil {
		events = []Event{}
	}
	return &StandardResponse{Data: &EventList{Events: events}}
}

// NewErrorResponse builds a failure envelope.
func NewErrorResponse(code, message string) *StandardResponse {
	return &StandardResponse{Error: &APIError{Code: code, Message: message}}
}
