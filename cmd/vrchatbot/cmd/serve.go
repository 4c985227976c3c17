package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmcleod/vrchatbot/api"
	"github.com/jmcleod/vrchatbot/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var tlsCert, tlsKey string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (tlsCert == "") != (tlsKey == "") {
				return errors.New("--tls-cert and --tls-key must be given together")
			}
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			handler, err := a.router()
			if err != nil {
				return err
			}
			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if tlsCert != "" {
				cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
				if err != nil {
					return fmt.Errorf("failed to load TLS key pair: %w", err)
				}
				server.TLSConfig = &tls.Config{
					Certificates: []tls.Certificate{cert},
					MinVersion:   tls.VersionTLS12,
				}
			}
			if cfg.Server.Token == "" {
				a.logger.Warn("gateway is running without a bearer token")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			done := make(chan error, 1)
			go func() {
				var err error
				if server.TLSConfig != nil {
					err = server.ListenAndServeTLS("", "")
				} else {
					err = server.ListenAndServe()
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					done <- fmt.Errorf("server failed: %w", err)
					return
				}
				done <- nil
			}()

			printBanner(cmd.OutOrStdout())
			a.logger.Info("serving", "addr", cfg.Server.Addr, "tls", server.TLSConfig != nil,
				"storage", cfg.Storage, "data_dir", cfg.DataDir)

			select {
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				return nil
			case err := <-done:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	cmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
	return cmd
}

// router mounts the gateway under /api/v1 and the Prometheus scrape
// endpoint at /metrics.
func (a *app) router() (http.Handler, error) {
	proxies := make([]netip.Prefix, 0, len(a.cfg.Server.TrustedProxies))
	for _, cidr := range a.cfg.Server.TrustedProxies {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		proxies = append(proxies, p.Masked())
	}
	gw := api.New(a.bot, a.sessions,
		api.WithLogger(a.logger),
		api.WithMetrics(a.metrics),
		api.WithToken(a.cfg.Server.Token),
		api.WithTrustedProxies(proxies),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Mount("/api/v1", gw.Router())
	r.Handle("/metrics", metrics.Handler(a.registry))
	return r, nil
}
