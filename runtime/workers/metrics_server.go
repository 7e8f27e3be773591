package workers

import (
	"chat-relay/contract"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

var _ contract.Worker = (*MetricsServerWorker)(nil)

type MetricsServerWorker struct {
	log     *slog.Logger
	addr    string
	handler http.Handler
}

func NewMetricsServerWorker(log *slog.Logger, addr string, handler http.Handler) *MetricsServerWorker {
	return &MetricsServerWorker{log: log, addr: addr, handler: handler}
}

// Run serves /metrics until ctx is done.
func (w *MetricsServerWorker) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", w.handler)
	server := &http.Server{Addr: w.addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting metrics server", "address", w.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errChan:
		return err
	}
}
