package llm

import "encoding/json"

// ErrorResponse represents an error payload returned by the API on non-2xx statuses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the body of an ErrorResponse.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"` // e.g. "INVALID_ARGUMENT", "PERMISSION_DENIED"
}

// ParseError decodes an error payload. The second return is false when the body
// does not carry one.
func ParseError(body []byte) (ErrorDetail, bool) {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ErrorDetail{}, false
	}
	if resp.Error.Message == "" && resp.Error.Status == "" {
		return ErrorDetail{}, false
	}
	return resp.Error, true
}
