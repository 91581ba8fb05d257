package api

import "time"

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, cookieSecure bool, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		projectHandler: newProjectHandler(deps.Catalog),
		authHandler:    newAuthHandler(deps.Auth, cookieSecure),
		contactHandler: newContactHandler(deps.Inquiries),
		healthHandler:  newHealthHandler(startupTime),
	}
}
