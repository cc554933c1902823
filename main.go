package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linesmerrill/reportform-dashboard/api"
	"github.com/linesmerrill/reportform-dashboard/api/handlers"
	"github.com/linesmerrill/reportform-dashboard/api/scheduler"
	"github.com/linesmerrill/reportform-dashboard/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		zap.S().Errorw("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(ctx); err != nil { //initialize database and router
		return err
	}

	// the first read runs before we accept traffic; a failure leaves the
	// dashboard in its loading state until a refresh succeeds
	loadCtx, cancel := api.WithQueryTimeout(ctx, a.Config.QueryTimeout)
	if err := a.View.Load(loadCtx); err != nil {
		zap.S().Warnw("initial report load failed", "error", err)
	}
	cancel()

	if a.Config.RefreshSchedule != "" {
		s := scheduler.NewScheduler(a.View, a.Config.RefreshSchedule, a.Config.QueryTimeout)
		if err := s.Start(); err != nil {
			_ = a.Close(ctx)
			return err
		}
		defer s.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.S().Infow("reportform-dashboard is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
			"backend", a.Config.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// hijacked websocket connections are not tracked by Shutdown
		a.Hub.Close()
		err := srv.Shutdown(shutdownCtx)
		return errors.Join(err, a.Close(shutdownCtx))
	})

	return g.Wait()
}
