// Package unit contains unit tests for the HTTP handlers of the Parlor server.
package unit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parlor-chat/parlor/internal/server"
	"github.com/parlor-chat/parlor/test/testhelpers"
)

// TestHealthHandlerUnit tests the health handler function in isolation.
// It verifies that the handler responds correctly to different HTTP methods
// and returns the expected status code and response body.
func TestHealthHandlerUnit(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "GET request to health endpoint",
			method:         "GET",
			expectedStatus: http.StatusOK,
			expectedBody:   "Parlor chat server is running!",
		},
		{
			name:           "POST request to health endpoint",
			method:         "POST",
			expectedStatus: http.StatusOK,
			expectedBody:   "Parlor chat server is running!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, "/", http.NoBody)
			if err != nil {
				t.Fatal(err)
			}

			rr := httptest.NewRecorder()

			server.HealthHandler(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					status, tt.expectedStatus)
			}

			if rr.Body.String() != tt.expectedBody {
				t.Errorf("handler returned unexpected body: got %v want %v",
					rr.Body.String(), tt.expectedBody)
			}
		})
	}
}

// TestWebSocketHandlerRejectsNonGet verifies that the WebSocket endpoint only
// accepts GET requests.
func TestWebSocketHandlerRejectsNonGet(t *testing.T) {
	req, err := http.NewRequest("POST", "/ws", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	server.WebSocketHandler(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
}

// TestMessagesHandler verifies the paginated messages view: GET only, JSON
// content type, and the page envelope shape.
func TestMessagesHandler(t *testing.T) {
	testServer := testhelpers.CreateTestServer(server.SetupRoutes())
	defer testServer.Close()

	resp := testhelpers.MakeRequest(t, "GET", testServer.URL+"/api/messages?page=1&limit=10")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "application/json")

	var page struct {
		Page     int               `json:"page"`
		Total    int               `json:"total"`
		Messages []json.RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode page response: %v", err)
	}
	if page.Page != 1 {
		t.Errorf("Expected page 1, got %d", page.Page)
	}
	if len(page.Messages) > page.Total {
		t.Errorf("Page holds %d messages but total is %d", len(page.Messages), page.Total)
	}

	postResp := testhelpers.MakeRequest(t, "POST", testServer.URL+"/api/messages")
	defer func() { _ = postResp.Body.Close() }()
	testhelpers.AssertStatusCode(t, postResp, http.StatusMethodNotAllowed)
}

// TestSearchMessagesHandler verifies the search view returns a JSON array.
func TestSearchMessagesHandler(t *testing.T) {
	testServer := testhelpers.CreateTestServer(server.SetupRoutes())
	defer testServer.Close()

	resp := testhelpers.MakeRequest(t, "GET", testServer.URL+"/api/messages/search?q=nothing-matches-this")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "application/json")

	var results []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("Failed to decode search response: %v", err)
	}
}

// TestUsersHandler verifies the users view returns a JSON array.
func TestUsersHandler(t *testing.T) {
	testServer := testhelpers.CreateTestServer(server.SetupRoutes())
	defer testServer.Close()

	resp := testhelpers.MakeRequest(t, "GET", testServer.URL+"/api/users")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "application/json")

	var users []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		t.Fatalf("Failed to decode users response: %v", err)
	}
}
