package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/api"
	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/build"
	"github.com/joestump/curated-links/internal/category"
	"github.com/joestump/curated-links/internal/config"
	"github.com/joestump/curated-links/internal/links"
	"github.com/joestump/curated-links/internal/notify"
	"github.com/joestump/curated-links/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			userStore := store.NewUserStore(database)
			categoryStore := store.NewCategoryStore(database)
			linkStore := store.NewLinkStore(database)
			orphanStore := store.NewOrphanStore(database)
			tokenStore := auth.NewSQLTokenStore(database)

			assetStore, err := newAssetStore(ctx, cfg.Assets, log)
			if err != nil {
				return err
			}

			mailer, err := newMailer(ctx, cfg, log)
			if err != nil {
				return err
			}

			dispatcher := notify.NewDispatcher(mailer,
				notify.NewRenderer(cfg.Email.SiteName, cfg.Email.ClientURL),
				cfg.Notify.Concurrency, cfg.Email.Timeout, log)
			notifier := notify.NewNotifier(categoryStore, notify.NewResolver(userStore), dispatcher,
				notify.NotifierOptions{QueueSize: cfg.Notify.QueueSize, JobTimeout: cfg.Notify.JobTimeout}, log)
			notifier.Start(cfg.Notify.Workers)

			manager := category.NewManager(categoryStore, orphanStore, assetStore,
				category.Options{Prefix: cfg.Assets.Prefix, Timeout: cfg.Assets.Timeout}, log)

			router := api.NewRouter(api.Deps{
				Auth:       auth.NewAuthenticator(tokenStore, userStore, log),
				Categories: manager,
				Publisher:  links.NewPublisher(linkStore, notifier, log),
				CategoryDB: categoryStore,
				LinkDB:     linkStore,
				UserDB:     userStore,
				TokenDB:    tokenStore,
				Logger:     log,
			})

			srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}
			errCh := make(chan error, 1)
			go func() {
				log.Info("listening",
					zap.String("addr", cfg.HTTP.Addr),
					zap.String("version", build.Version),
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					_ = notifier.Shutdown(context.Background())
					return errors.Wrap(err, "http server")
				}
			case <-ctx.Done():
			}

			log.Info("shutting down", zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("http shutdown", zap.Error(err))
			}
			// In-flight notification jobs get whatever is left of the deadline.
			if err := notifier.Shutdown(shutdownCtx); err != nil {
				log.Warn("notification queue not drained", zap.Error(err))
			}
			return nil
		},
	}
}

func newMailer(ctx context.Context, cfg *config.Config, log *zap.Logger) (notify.Mailer, error) {
	if cfg.Email.Backend == "log" {
		return notify.NewLogMailer(log), nil
	}
	return notify.NewSESMailer(ctx, notify.SESConfig{
		Region:          cfg.Email.Region,
		From:            cfg.Email.From,
		AccessKeyID:     cfg.Email.AccessKeyID,
		SecretAccessKey: cfg.Email.SecretAccessKey,
		Endpoint:        cfg.Email.Endpoint,
	}, log)
}
