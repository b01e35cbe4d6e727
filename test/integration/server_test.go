package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/parlor-chat/parlor/internal/server"
	"github.com/parlor-chat/parlor/test/testhelpers"
)

// httpBaseURL converts the WebSocket URL returned by startChatServer back into
// the plain HTTP base address of the same test server.
func httpBaseURL(t *testing.T, wsURL string) string {
	t.Helper()

	u, err := url.Parse(wsURL)
	if err != nil {
		t.Fatalf("Failed to parse WebSocket URL: %v", err)
	}
	u.Scheme = "http"
	u.Path = ""
	return u.String()
}

// TestHealthEndpoint tests the health endpoint against a running server.
func TestHealthEndpoint(t *testing.T) {
	wsURL := startChatServer(t)
	baseURL := httpBaseURL(t, wsURL)

	resp := testhelpers.MakeRequest(t, "GET", baseURL+"/")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if string(body) != "Parlor chat server is running!" {
		t.Errorf("Unexpected health response body: %q", string(body))
	}
}

// TestMessagesAPIReflectsChatActivity verifies the REST views observe messages
// and users produced over WebSocket: pagination, search, and presence.
func TestMessagesAPIReflectsChatActivity(t *testing.T) {
	wsURL := startChatServer(t)
	baseURL := httpBaseURL(t, wsURL)
	const room = "rest-room"
	const marker = "rest-view-marker-text"

	alice, _ := joinUser(t, wsURL, "alice", room)

	testhelpers.MustSendEvent(t, alice, "send_message", map[string]string{"text": marker})
	testhelpers.WaitForEvent(t, alice, "message_delivered", eventTimeout)

	type messagePage struct {
		Page     int           `json:"page"`
		Total    int           `json:"total"`
		Messages []wireMessage `json:"messages"`
	}

	resp := testhelpers.MakeRequest(t, "GET", baseURL+"/api/messages?room="+room+"&page=1&limit=20")
	defer func() { _ = resp.Body.Close() }()
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "application/json")

	var page messagePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode messages page: %v", err)
	}
	if page.Total < 1 {
		t.Fatalf("Expected at least one message in %s, total was %d", room, page.Total)
	}
	found := false
	for _, msg := range page.Messages {
		if msg.Text == marker {
			found = true
			if msg.Room != room {
				t.Errorf("Message stored in room %q, expected %q", msg.Room, room)
			}
			if msg.Sender != "alice" {
				t.Errorf("Message stored with sender %q, expected %q", msg.Sender, "alice")
			}
		}
	}
	if !found {
		t.Errorf("Message %q not present in page for room %s", marker, room)
	}

	// Search is case-insensitive over the text body.
	searchResp := testhelpers.MakeRequest(t, "GET",
		baseURL+"/api/messages/search?q="+strings.ToUpper(marker)+"&room="+room)
	defer func() { _ = searchResp.Body.Close() }()
	testhelpers.AssertStatusCode(t, searchResp, http.StatusOK)

	var results []wireMessage
	if err := json.NewDecoder(searchResp.Body).Decode(&results); err != nil {
		t.Fatalf("Failed to decode search results: %v", err)
	}
	if len(results) != 1 || results[0].Text != marker {
		t.Errorf("Expected exactly the marker message from search, got %+v", results)
	}

	// Presence view includes the connected user.
	usersResp := testhelpers.MakeRequest(t, "GET", baseURL+"/api/users")
	defer func() { _ = usersResp.Body.Close() }()
	testhelpers.AssertStatusCode(t, usersResp, http.StatusOK)

	var users []session
	if err := json.NewDecoder(usersResp.Body).Decode(&users); err != nil {
		t.Fatalf("Failed to decode users: %v", err)
	}
	foundUser := false
	for _, u := range users {
		if u.Username == "alice" && u.Room == room {
			foundUser = true
		}
	}
	if !foundUser {
		t.Errorf("Expected alice in %s among users %+v", room, users)
	}
}

// TestWebSocketUpgradeRequired verifies that a plain HTTP GET to the WebSocket
// endpoint is rejected with a client error instead of hanging.
func TestWebSocketUpgradeRequired(t *testing.T) {
	wsURL := startChatServer(t)
	baseURL := httpBaseURL(t, wsURL)

	resp := testhelpers.MakeRequest(t, "GET", baseURL+"/ws")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusBadRequest)
}

// TestCreateServerConfiguration verifies the HTTP server carries the expected
// timeout settings.
func TestCreateServerConfiguration(t *testing.T) {
	srv := server.CreateServer(":0", server.SetupRoutes())

	if srv.ReadTimeout != 15*time.Second {
		t.Errorf("Expected read timeout 15s, got %v", srv.ReadTimeout)
	}
	if srv.WriteTimeout != 15*time.Second {
		t.Errorf("Expected write timeout 15s, got %v", srv.WriteTimeout)
	}
	if srv.IdleTimeout != 60*time.Second {
		t.Errorf("Expected idle timeout 60s, got %v", srv.IdleTimeout)
	}
}
