package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const handlerTimeout = 5 * time.Second

type HTTPServer struct {
	httpServer *http.Server
}

// NewHTTPServer wraps the handler with the JSON media type check,
// request logging and a per request timeout.
func NewHTTPServer(addr string, handler http.Handler) HTTPServer {
	handler = AllowJSON(handler)
	handler = http.TimeoutHandler(handler, handlerTimeout, "unavailable")
	handler = LogRequests(handler)
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	return HTTPServer{s}
}

func (s HTTPServer) Run(stopFn context.CancelFunc) {
	const op = "HTTPServer.Run"
	log := slog.With("op", op)

	defer stopFn()
	log.Info("listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Error("unexpected server shutdown", "err", err)
	}
}

func (s HTTPServer) Close(ctx context.Context) {
	const op = "HTTPServer.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		log.Error("failed to shutdown gracefully", "err", err)
	}
	log.Info("http server is closed")
}
