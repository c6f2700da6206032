package handlers

const (
	ErrInvalidRequestBody = "Invalid request body"
	ErrInvalidChildID     = "Invalid child id"
	ErrTooManyRequests    = "Too many requests, please try again later"

	maxBodyBytes = 1 << 20
)
