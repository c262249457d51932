package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/budget"
	"github.com/paris-open-data/budget-cli/internal/db"
)

var warehouseCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Warehouse operations",
}

var warehouseLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load extracted budget lines into the warehouse",
	Long:  "Upserts the per-year budget seed CSVs into the warehouse budget_lignes table so downstream dashboards query one source.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		years, err := resolveYears(cmd, cfg.Sources.BudgetVote)
		if err != nil {
			return err
		}

		replace, _ := cmd.Flags().GetBool("replace")

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		log := zap.L().With(zap.String("command", "warehouse.load"))

		upsert := db.UpsertConfig{
			Table: "budget_lignes",
			Columns: []string{
				"annee", "section", "sens_flux",
				"chapitre_code", "chapitre_libelle",
				"nature_code", "nature_libelle",
				"fonction_code", "montant",
				"source_page", "source_pdf",
			},
			ConflictKeys: []string{
				"annee", "section", "sens_flux",
				"chapitre_code", "nature_code", "fonction_code", "source_page",
			},
		}

		if replace {
			if _, err := pool.Exec(ctx, "TRUNCATE "+upsert.Table); err != nil {
				return eris.Wrapf(err, "warehouse: truncate %s", upsert.Table)
			}
		}

		for _, year := range years {
			seedPath := filepath.Join(cfg.Paths.SeedsDir, fmt.Sprintf("budget_vote_%d.csv", year))
			lines, err := budget.ReadSeedCSV(seedPath)
			if err != nil {
				log.Warn("skipping year, seed unreadable",
					zap.Int("year", year), zap.Error(err))
				continue
			}

			rows := make([][]any, len(lines))
			for i, l := range lines {
				rows[i] = []any{
					l.Annee, l.Section, l.SensFlux,
					l.ChapitreCode, l.ChapitreLibelle,
					l.NatureCode, l.NatureLibelle,
					l.FonctionCode, l.Montant,
					l.SourcePage, l.SourcePDF,
				}
			}

			var n int64
			if replace {
				n, err = db.CopyFrom(ctx, pool, upsert.Table, upsert.Columns, rows)
			} else {
				n, err = db.BulkUpsert(ctx, pool, upsert, rows)
			}
			if err != nil {
				return err
			}
			fmt.Printf("%d: %d lines loaded from %s\n", year, n, seedPath)
		}
		return nil
	},
}

func init() {
	addYearFlags(warehouseLoadCmd)
	warehouseLoadCmd.Flags().Bool("replace", false, "truncate the table and reload with COPY instead of upserting")
	warehouseCmd.AddCommand(warehouseLoadCmd)
	rootCmd.AddCommand(warehouseCmd)
}
