package dto

import "time"

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Succeed      bool         `json:"succeed" example:"true"`
	Message      string       `json:"message" example:"Session created successfully"`
	Data         interface{}  `json:"data"`
	ErrorDetails *ErrorDetail `json:"errorDetails"`
	Timestamp    time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewSuccessResponse wraps data in a successful envelope
func NewSuccessResponse(data interface{}, message string) APIResponse {
	return APIResponse{
		Succeed:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewErrorResponse wraps an error detail in a failed envelope
func NewErrorResponse(errorDetail *ErrorDetail) APIResponse {
	return APIResponse{
		Succeed:      false,
		Message:      errorDetail.Message,
		ErrorDetails: errorDetail,
		Timestamp:    time.Now(),
	}
}

// SuccessResponse represents a bare acknowledgement payload
type SuccessResponse struct {
	Message string `json:"message"`
}
