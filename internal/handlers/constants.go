package handlers

const (
	ErrInvalidJSON         = "Invalid request body"
	ErrInvalidPosition     = "Invalid position"
	ErrUnauthorized        = "Unauthorized"
	ErrAccessDenied        = "Access denied"
	ErrNotFound            = "Not found"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"

	maxRequestBodyBytes = 1 << 20
)
