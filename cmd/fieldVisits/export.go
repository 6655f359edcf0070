package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"field_visits/internal/config"
	"field_visits/internal/repository"
	"field_visits/internal/service/visits"
	"field_visits/internal/utils"
	pkg_config "field_visits/pkg/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportKind  string
	exportStart string
	exportEnd   string
	exportName  string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write visit records from the store to an xlsx file",
	Long: `Writes the same workbook as GET /api/customers/excel (or /api/partner-visits/excel
with --kind partners). Dates accept YYYY-MM-DD or YYYY-MM-DDTHH:MM.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportKind, "kind", "customers", "customers or partners")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "first visit date, inclusive")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "last visit date, inclusive")
	exportCmd.Flags().StringVar(&exportName, "name", "", "case-insensitive name substring")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: workbook file name)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := config.ExportConfig{}
	if err := pkg_config.LoadEnv(envFile, bootLogger(), &cfg); err != nil {
		return fmt.Errorf("error loading configs: %w", err)
	}

	logger, err := newLogger(cfg.LogConfig)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

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
	filter, err := svc.ParseFilter(exportStart, exportEnd, exportName)
	if err != nil {
		return err
	}

	var (
		buf      bytes.Buffer
		fileName string
	)
	switch exportKind {
	case "customers":
		fileName = svc.CustomerSheet().FileName
		err = svc.ExportCustomers(ctx, filter, &buf)
	case "partners":
		fileName = svc.PartnerVisitSheet().FileName
		err = svc.ExportPartnerVisits(ctx, filter, &buf)
	default:
		return fmt.Errorf("unknown kind %q, want customers or partners", exportKind)
	}
	if err != nil {
		return err
	}

	if exportOut == "" {
		exportOut = fileName
	}
	if err := os.WriteFile(exportOut, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}

	logger.Info("export written", zap.String("file", exportOut), zap.Int("bytes", buf.Len()))
	return nil
}
