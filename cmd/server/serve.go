package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlessLeS/ism-partners-db/internal/auth"
	"github.com/AlessLeS/ism-partners-db/internal/config"
	"github.com/AlessLeS/ism-partners-db/internal/handlers"
	"github.com/AlessLeS/ism-partners-db/internal/importer"
	"github.com/AlessLeS/ism-partners-db/internal/repository"
	"github.com/AlessLeS/ism-partners-db/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	users, err := auth.Load(e.cfg.UsersPath)
	if err != nil {
		e.log.Warn("credentials not loaded, nobody can log in", zap.String("path", e.cfg.UsersPath), zap.Error(err))
	} else if users.Len() == 0 {
		e.log.Warn("no accounts configured", zap.String("path", e.cfg.UsersPath))
	}

	uploads, err := importer.NewUploads(e.cfg.UploadDir)
	if err != nil {
		return err
	}

	partners := repository.NewPartnerRepository(e.db)
	h := &handlers.Handler{
		Partners: partners,
		Contacts: repository.NewContactRepository(e.db),
		Users:    users,
		Importer: importer.New(partners, e.log.Named("import")),
		Uploads:  uploads,
		Log:      e.log,
	}
	if e.cfg.DBDriver == config.DriverSQLite {
		h.DBPath = e.cfg.DBPath
	}

	r, err := server.NewRouter(e.cfg.SessionSecret, h, e.log.Named("http"))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + e.cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("starting server", zap.String("addr", srv.Addr), zap.String("db_driver", e.cfg.DBDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	e.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
