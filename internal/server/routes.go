// Package server wires HTTP handlers into a ServeMux for the Parlor
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// It sets up handlers for the health check, the WebSocket endpoint, and the
// REST views over messages and users.
func SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", WebSocketHandler)
	mux.HandleFunc("/api/messages", MessagesHandler)
	mux.HandleFunc("/api/messages/search", SearchMessagesHandler)
	mux.HandleFunc("/api/users", UsersHandler)
	return mux
}
