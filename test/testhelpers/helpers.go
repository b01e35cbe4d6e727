// Package testhelpers provides common utilities and helper functions for testing the Parlor server.
//
// This package contains reusable test utilities shared across unit and
// integration tests: creating test servers, making HTTP requests, and
// exchanging event envelopes over WebSocket connections.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Event mirrors the wire envelope exchanged with the server.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
// It fails the test with a descriptive error message if the status codes don't match.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
// It fails the test with a descriptive error message if the content types don't match.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ConnectWebSocket creates a WebSocket connection to the specified URL.
// It returns the connection or an error if connection fails.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	// Set a proper origin header for testing
	headers := http.Header{}
	headers.Set("Origin", "http://localhost:8080")

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// MustConnect connects to the WebSocket URL and fails the test on error. The
// connection is closed automatically when the test finishes.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, err := ConnectWebSocket(url)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendEvent writes one event envelope to the connection.
func SendEvent(conn *websocket.Conn, event string, data any) error {
	return conn.WriteJSON(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: data})
}

// MustSendEvent writes one event envelope and fails the test on error.
func MustSendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	if err := SendEvent(conn, event, data); err != nil {
		t.Fatalf("Failed to send %s event: %v", event, err)
	}
}

// WaitForEvent reads frames until one with the given event name arrives,
// discarding everything else, and fails the test if the timeout elapses.
func WaitForEvent(t *testing.T, conn *websocket.Conn, name string, timeout time.Duration) Event {
	t.Helper()
	return WaitForEventMatch(t, conn, name, timeout, nil)
}

// WaitForEventMatch reads frames until one with the given event name arrives
// whose envelope satisfies match (a nil match accepts any payload). Frames
// that do not match are discarded.
func WaitForEventMatch(t *testing.T, conn *websocket.Conn, name string, timeout time.Duration, match func(Event) bool) Event {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("Failed to set read deadline: %v", err)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Timed out waiting for %s event: %v", name, err)
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("Received invalid envelope while waiting for %s: %v", name, err)
		}
		if ev.Event != name {
			continue
		}
		if match != nil && !match(ev) {
			continue
		}
		return ev
	}
}

// ExpectNoEvent reads frames for the given duration and fails the test if one
// with the given event name arrives. Other events are discarded.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, name string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("Failed to set read deadline: %v", err)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return // timeout or closure means the event never arrived
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		if ev.Event == name {
			t.Fatalf("Expected no %s event, but received one: %s", name, string(ev.Data))
		}
	}
}

// DecodeData unmarshals an event payload into target, failing the test on error.
func DecodeData(t *testing.T, ev Event, target any) {
	t.Helper()

	if err := json.Unmarshal(ev.Data, target); err != nil {
		t.Fatalf("Failed to decode %s payload: %v", ev.Event, err)
	}
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
