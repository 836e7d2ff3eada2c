// Package server runs the store server's HTTP transport.
//
// It owns the listener lifecycle: startup, signal handling and graceful
// shutdown, including the websocket change feeds that the net/http server
// does not track.
package server
