package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/nullbind"
	"github.com/reoring/nullbind/middleware"
	"github.com/reoring/nullbind/register"
)

func newServeCmd(cfg config, logger zerolog.Logger) *cobra.Command {
	var (
		schema   string
		strategy string
		addr     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an HTTP endpoint that binds POSTed JSON documents",
		Long: `Serve POST /bind: the request body is bound against the schema
declaration and the record is answered as JSON, or 400 with the issues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(schema, strategy)
			if err != nil {
				return err
			}
			h, err := newBindHandler(s, cfg, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, h, logger)
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "YAML schema declaration (required)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "override the declared strategy: setter or constructor")
	cmd.Flags().StringVar(&addr, "addr", cfg.Addr, "listen address")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newBindHandler(s *nullbind.Schema[register.Record], cfg config, logger zerolog.Logger) (http.Handler, error) {
	sev, err := nullbind.ParseSeverity(cfg.DuplicateKeys)
	if err != nil {
		return nil, fmt.Errorf("NULLBIND_DUPLICATE_KEYS: %w", err)
	}
	opt := middleware.DefaultParseOpt()
	opt.OnDuplicateKey = sev
	opt.MaxDepth = cfg.MaxDepth
	if cfg.MaxBytes > 0 {
		opt.MaxBytes = cfg.MaxBytes
	}
	opt.IssueSink = func(is nullbind.Issue) {
		logger.Warn().Str("path", is.Path).Str("code", is.Code).Msg(is.Message)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /bind", middleware.Bind(s, opt)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, _ := middleware.DecodedFromContext[register.Record](r.Context())
		w.Header().Set("Content-Type", "application/json")
		if err := writeJSON(w, d.Value); err != nil {
			logger.Error().Err(err).Msg("write response")
		}
	})))
	return mux, nil
}

func serve(ctx context.Context, addr string, h http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
