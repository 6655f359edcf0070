package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"field_visits/internal/config"
	"field_visits/internal/domain"
	"field_visits/internal/repository"
	"field_visits/internal/service/api"
	"field_visits/internal/service/sheet"
	"field_visits/internal/service/sheetsync"
	"field_visits/internal/service/visits"
	"field_visits/internal/utils"
	pkg_config "field_visits/pkg/config"
	"field_visits/pkg/masker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := config.Config{}
	if err := pkg_config.LoadEnv(envFile, bootLogger(), &cfg); err != nil {
		return fmt.Errorf("error loading configs: %w", err)
	}

	logger, err := newLogger(cfg.LogConfig)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := masker.LogConfigs(logger, &cfg); err != nil {
		return fmt.Errorf("error logging configs: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("error loading time zone: %w", err)
	}

	repo, err := repository.Open(ctx, cfg.StoreConfig.URI, cfg.StoreConfig.DBName)
	if err != nil {
		return fmt.Errorf("error opening store: %w", err)
	}
	defer utils.CloseWithLog(logger, "store", repo.Close)

	svc := visits.NewService(repo, loc, logger)
	g, gctx := errgroup.WithContext(ctx)

	if cfg.GoogleSheetConfig.Enabled {
		syncer, err := newSheetSyncer(ctx, cfg.GoogleSheetConfig, repo, loc, logger)
		if err != nil {
			return err
		}
		svc.OnCustomerSaved(syncer.ForceUpdate)
		g.Go(func() error {
			syncer.Run(gctx)
			return nil
		})
	}

	router := api.NewRouter(api.NewHandler(svc, repo, logger), api.Options{
		CORSOrigin:     cfg.CORSOrigin,
		MetricsEnabled: cfg.MetricsEnabled,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newSheetSyncer(ctx context.Context, cfg config.GoogleSheetConfig, repo domain.VisitRepo, loc *time.Location, logger *zap.Logger) (*sheetsync.Syncer, error) {
	sheetService, err := sheet.NewSheetService(
		ctx,
		cfg.CredentialsBase64,
		cfg.SpreadsheetID,
		cfg.SheetID,
		cfg.PauseMs,
		sheet.CreateColumnMapFromOrder(cfg.Columns),
		loc,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet service: %w", err)
	}
	interval := time.Duration(cfg.SyncIntervalMin) * time.Minute
	return sheetsync.NewSyncer(sheetService, repo, logger, interval), nil
}
