package models

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// InlineImage is a base64-encoded image attached to a turn.
type InlineImage struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// ChatMessage represents a single turn in a conversation.
type ChatMessage struct {
	Role  Role         `json:"role"`
	Text  string       `json:"text"`
	Image *InlineImage `json:"image,omitempty"`
}

// ChatRequest is what the UI submits for one assistant reply.
// Image may carry a data-URL prefix such as "data:image/png;base64,".
type ChatRequest struct {
	Message string        `json:"message"`
	Mode    string        `json:"mode,omitempty"`
	Image   string        `json:"image,omitempty"`
	History []ChatMessage `json:"history,omitempty"`
}

// QuotaUsage is a snapshot of a client's rate-limit consumption.
type QuotaUsage struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

// ErrorCode classifies a failed ChatResult.
type ErrorCode string

const (
	CodeInvalidRequest     ErrorCode = "invalid_request"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeNotConfigured      ErrorCode = "not_configured"
	CodeBackendError       ErrorCode = "backend_error"
	CodeLimiterUnavailable ErrorCode = "limiter_unavailable"
)

// ChatResult is either a reply with usage or a user-facing error.
type ChatResult struct {
	Text       string      `json:"text,omitempty"`
	Usage      *QuotaUsage `json:"usage,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       ErrorCode   `json:"code,omitempty"`
	RetryAfter int         `json:"retry_after,omitempty"`
}

// Failed reports whether the result carries an error.
func (r ChatResult) Failed() bool {
	return r.Error != ""
}
