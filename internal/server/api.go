// Package server exposes read-only REST views over the live message history
// and connection registry. Both views observe the same bounded log the
// WebSocket broadcasts draw from.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// MessagesHandler serves GET /api/messages?room=&page=&limit=, a paginated
// slice of the message log in arrival order, oldest first.
func MessagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	page := parsePositiveInt(query.Get("page"), 1)
	limit := parsePositiveInt(query.Get("limit"), 20)

	writeJSON(w, hub.History().Page(query.Get("room"), page, limit))
}

// SearchMessagesHandler serves GET /api/messages/search?q=&room=, a
// case-insensitive substring match over message text.
func SearchMessagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	writeJSON(w, hub.History().Search(query.Get("q"), query.Get("room")))
}

// UsersHandler serves GET /api/users, the list of all registered connections.
func UsersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, hub.Registry().All())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

func parsePositiveInt(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}
