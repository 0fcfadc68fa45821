package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatcore/internal/httpserver"
	"chatcore/internal/media"
	"chatcore/internal/metrics"
	"chatcore/internal/notification"
	"chatcore/internal/reaction"
	"chatcore/internal/security"
	"chatcore/internal/service"
	"chatcore/internal/ws"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.migrate(); err != nil {
				return err
			}
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.log

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	encryptor, err := security.NewEncryptor([]byte(cfg.EncryptKey), cfg.LegacyEncryptKeys)
	if err != nil {
		return err
	}

	uploads := media.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxUploadBytes())
	engine := reaction.NewEngine(cfg.ReactionMaxAttempts, rec, log.Named("reaction"))
	hub := ws.NewHub(rec, log.Named("realtime"))
	defer hub.Close()

	convs := service.NewConversationService(
		a.store,
		media.NewResolver(uploads, log.Named("media")),
		engine,
		notification.NewDispatcher(a.store, rec, log.Named("notification")),
		encryptor,
		rec,
		log.Named("conversation"),
	)
	convs.SetBroadcaster(hub)

	router := httpserver.NewRouter(httpserver.Deps{
		Config:        cfg,
		Log:           log.Named("http"),
		Identity:      a.identity(),
		Conversations: convs,
		Posts:         service.NewPostService(a.store, engine, log.Named("post")),
		Uploads:       uploads,
		Hub:           hub,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", zap.String("addr", cfg.HTTPAddr()), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful_shutdown_failed", zap.Error(err))
	}
	return nil
}
