// Package server implements the core session coordination for Parlor, a
// room-based chat server.
//
// The implementation is organized into specialized files for the connection
// registry, message history, typing state, hub and event dispatch, client
// pumps, REST views, and configuration to keep the codebase maintainable and
// testable as the project grows.
package server
