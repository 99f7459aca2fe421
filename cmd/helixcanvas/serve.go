package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"helixcanvas/internal/adapters/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		replay bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace HTTP API with /metrics and /debug/vars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.HTTPAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ws, err := a.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := ws.Close(); err != nil {
					a.logger.Error("close workspace", "error", err)
				}
			}()
			if replay {
				n, err := ws.svc.ReplayArchive(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("replayed archive", "files", n)
			}
			return serve(ctx, a, newMux(ws))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&replay, "replay", false, "re-import every archived file before serving")
	return cmd
}

func newMux(ws *workspace) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/v1/", httpapi.NewHandler(ws.svc, ws.pool))
	mux.Handle("/metrics", promhttp.HandlerFor(ws.registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func serve(ctx context.Context, a *app, handler http.Handler) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.logger.Info("listening", "addr", a.cfg.HTTPAddr, "storage", a.cfg.Storage.Driver, "workers", a.cfg.Workers)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
