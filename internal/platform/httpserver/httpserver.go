// Package httpserver builds the server the practiceops API runs on.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the router in a server with conservative timeouts. Timeline and
// ranking queries are the slowest endpoints and stay well under a second, so
// anything holding a connection longer is a stuck client.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
