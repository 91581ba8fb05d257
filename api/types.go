package api

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler projectHandler
	authHandler    authHandler
	contactHandler contactHandler
	healthHandler  healthHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Missing required field"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Missing required field: title"`
}

// SuccessResponse acknowledges an admin mutation.
type SuccessResponse struct {
	Success bool `json:"success"`
	ID      uint `json:"id,omitempty"`
}

// OKResponse acknowledges a contact submission.
type OKResponse struct {
	OK bool `json:"ok"`
}

type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}
