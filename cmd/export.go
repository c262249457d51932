package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/export"
	"github.com/paris-open-data/budget-cli/internal/investment"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Regenerate the published artifacts",
	Long:  "Rewrites the per-year investment JSON, the cross-year index, and the map GeoJSON from the stored year artifacts. Run it after merge, geocode, or enrich to refresh everything the frontend reads.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		years, err := resolveYears(cmd, cfg.Sources.Investments)
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "export"))

		for _, year := range years {
			art, err := export.ReadYear(cfg.Paths.DataDir, year)
			if err != nil {
				log.Warn("skipping year, artifact missing",
					zap.Int("year", year), zap.Error(err))
				continue
			}

			res := investment.MergeResult{
				Year:     art.Year,
				Status:   art.Status,
				Projects: art.Data,
				Stats:    art.Stats,
			}
			path, err := export.WriteYear(cfg.Paths.DataDir, res)
			if err != nil {
				return err
			}
			fmt.Printf("%d: %d projects -> %s\n", year, len(art.Data), path)
		}

		// Index and GeoJSON always cover every year on disk, not just
		// the years of this run.
		indexPath, err := export.RefreshIndex(cfg.Paths.DataDir)
		if err != nil {
			return err
		}
		fmt.Printf("index -> %s\n", indexPath)

		geoPath := filepath.Join(cfg.Paths.DataDir, "investissements.geojson")
		if err := export.RefreshGeoJSON(cfg.Paths.DataDir, geoPath); err != nil {
			return err
		}
		fmt.Printf("geojson -> %s\n", geoPath)
		return nil
	},
}

func init() {
	addYearFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}
