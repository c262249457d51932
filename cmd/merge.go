package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/export"
	"github.com/paris-open-data/budget-cli/internal/investment"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge annex projects with warehouse records",
	Long:  "Combines the extracted annex projects with large warehouse operations, deduplicated by name similarity, and writes the per-year artifacts plus the year index.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		years, err := resolveYears(cmd, cfg.Sources.Investments)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		source := investment.NewWarehouseSource(pool, cfg.Warehouse.Table)

		log := zap.L().With(zap.String("command", "merge"))
		mergeCfg := investment.MergeConfig{
			MinAmount:     cfg.Merge.MinAmount,
			KeywordCount:  cfg.Merge.Keywords,
			KeywordMinLen: cfg.Merge.MinKeywordLen,
		}

		for _, year := range years {
			pdf, err := readPDFProjects(cfg.Paths.DataDir, year)
			if err != nil {
				return err
			}

			warehouse, err := source.Projects(ctx, year)
			if err != nil {
				log.Warn("warehouse unavailable, merging annex data only",
					zap.Int("year", year), zap.Error(err))
			}

			res := investment.Merge(pdf, warehouse, year, mergeCfg)

			for reason, n := range res.SkipReasons {
				log.Info("warehouse records skipped",
					zap.Int("year", year), zap.String("reason", reason), zap.Int("count", n))
			}

			if dryRun {
				fmt.Printf("%d [dry-run]: %d PDF + %d warehouse = %d projects (%.0f€)\n",
					year, res.Stats.PDFProjets, res.Stats.WarehouseAdded,
					res.Stats.TotalProjets, res.Stats.TotalMontant)
				continue
			}

			path, err := export.WriteYear(cfg.Paths.DataDir, res)
			if err != nil {
				return err
			}
			fmt.Printf("%d: %d projects (%.0f€) -> %s\n",
				year, res.Stats.TotalProjets, res.Stats.TotalMontant, path)
		}

		if !dryRun {
			if _, err := export.RefreshIndex(cfg.Paths.DataDir); err != nil {
				return err
			}
		}
		return nil
	},
}

// warehousePool opens the warehouse connection pool.
func warehousePool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := cfg.Warehouse.DatabaseURL
	if dsn == "" {
		return nil, eris.New("merge: no warehouse.database_url configured")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "merge: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "merge: ping warehouse")
	}

	return pool, nil
}

func init() {
	addYearFlags(mergeCmd)
	mergeCmd.Flags().Bool("dry-run", false, "report the merge without writing artifacts")
	rootCmd.AddCommand(mergeCmd)
}
