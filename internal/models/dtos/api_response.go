package dtos

// APIResponse is the standard JSON envelope for every endpoint
type APIResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
	Details      string `json:"details,omitempty"`
	ResponseTime string `json:"responseTime,omitempty"`
	Data         any    `json:"data,omitempty"`
}
