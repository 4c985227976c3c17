package api

// MessageRequest is the JSON body for POST /messages.
type MessageRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
	Text      string `json:"text" validate:"max=4096"`
}

// MessageResponse carries the bot's replies, in order. It is empty when
// the message was not meant for the bot.
type MessageResponse struct {
	Replies []string `json:"replies"`
}

// SessionsResponse lists the ids of sessions with a stored login.
type SessionsResponse struct {
	Sessions []string `json:"sessions"`
	PaginationMeta
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
