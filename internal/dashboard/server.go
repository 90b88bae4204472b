package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/uptime-oracle/uptime-oracle/internal/pkg/metrics"
)

// Router builds the HTTP surface: the v1 API, the speech proxy, and the
// operational endpoints.
func (d *Dashboard) Router() *mux.Router {
	router := mux.NewRouter()

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/state", d.handleState).Methods(http.MethodGet)
	v1.HandleFunc("/alerts", d.handleAlerts).Methods(http.MethodGet)
	v1.HandleFunc("/maintenance", d.handleMaintenance).Methods(http.MethodGet)
	v1.HandleFunc("/fault", d.handleInjectFault).Methods(http.MethodPost)
	v1.HandleFunc("/fault", d.handleClearFault).Methods(http.MethodDelete)
	v1.HandleFunc("/session", d.handleStartSession).Methods(http.MethodPost)
	v1.HandleFunc("/session", d.handleStopSession).Methods(http.MethodDelete)
	v1.HandleFunc("/repair", d.handleRepair).Methods(http.MethodPost)

	router.Handle("/api/tts", d.speechProxy).Methods(http.MethodPost)

	router.HandleFunc("/healthz", d.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/readyz", d.handleReadyz).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return router
}

func (d *Dashboard) serveHTTP(ctx context.Context) error {
	server := &http.Server{
		Addr:         d.httpOpts.Addr,
		Handler:      d.Router(),
		ReadTimeout:  d.httpOpts.Timeout,
		WriteTimeout: d.httpOpts.Timeout,
	}

	listener, err := net.Listen(d.httpOpts.Network, d.httpOpts.Addr)
	if err != nil {
		return err
	}
	d.logger.Info("HTTP server listening", "addr", d.httpOpts.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			d.logger.Error(err, "HTTP server shutdown failed")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
