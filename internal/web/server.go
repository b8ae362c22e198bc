// Package web provides the localhost HTTP listener that captures the OAuth
// redirect during setup. The bank sends the browser back to the registered
// redirect URI with code and state query parameters; this server hands them
// to the caller and is done.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

// Callback carries the query parameters of the OAuth redirect
type Callback struct {
	Code  string
	State string
}

// CallbackServer listens for a single OAuth redirect. Listen binds the
// address immediately so the consent flow can be started before Wait is
// called without risking a missed redirect.
type CallbackServer struct {
	listener net.Listener
	logger   *slog.Logger
	received chan Callback
}

// Listen binds addr and returns a server ready to capture the redirect
func Listen(addr string, logger *slog.Logger) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", addr, err)
	}
	return &CallbackServer{
		listener: listener,
		logger:   logger,
		received: make(chan Callback, 1),
	}, nil
}

// URL returns the address the server is listening on
func (s *CallbackServer) URL() string {
	return fmt.Sprintf("http://%s", s.listener.Addr())
}

func (s *CallbackServer) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		http.Error(w, "missing code parameter", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Authorization received, you can close this tab.")

	select {
	case s.received <- Callback{Code: code, State: query.Get("state")}:
	default:
		// a redirect was already captured, drop duplicates
	}
}

// Wait blocks until the provider redirects the browser back or ctx is
// canceled
func (s *CallbackServer) Wait(ctx context.Context) (Callback, error) {
	server := &http.Server{Handler: http.HandlerFunc(s.handle)}
	go func() {
		if err := server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("callback server", "error", err)
		}
	}()
	defer server.Close()

	select {
	case callback := <-s.received:
		s.logger.Debug("captured OAuth redirect")
		return callback, nil
	case <-ctx.Done():
		return Callback{}, ctx.Err()
	}
}

// Close releases the listener without waiting for a redirect
func (s *CallbackServer) Close() error {
	return s.listener.Close()
}
