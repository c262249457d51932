package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/paris-open-data/budget-cli/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local lookup caches",
}

var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the caches as seed CSVs",
	Long:  "Dumps the geocode and theme caches to seed CSVs so a fresh checkout starts warm.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cache, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Migrate(ctx); err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Paths.SeedsDir, 0o755); err != nil {
			return eris.Wrap(err, "cache: create seeds dir")
		}

		geo, err := cache.AllGeo(ctx)
		if err != nil {
			return err
		}
		geoPath := filepath.Join(cfg.Paths.SeedsDir, "geocode_cache.csv")
		if err := writeGeoSeed(geoPath, geo); err != nil {
			return err
		}
		fmt.Printf("%d geocode entries -> %s\n", len(geo), geoPath)

		themes, err := cache.AllThemes(ctx)
		if err != nil {
			return err
		}
		themePath := filepath.Join(cfg.Paths.SeedsDir, "themes_cache.csv")
		if err := writeThemeSeed(themePath, themes); err != nil {
			return err
		}
		fmt.Printf("%d theme entries -> %s\n", len(themes), themePath)

		return nil
	},
}

func writeGeoSeed(path string, entries []store.GeoEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "cache: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"query_key", "matched", "lat", "lon", "score", "tier", "label"}); err != nil {
		return eris.Wrap(err, "cache: write geo header")
	}
	for _, e := range entries {
		rec := []string{
			e.QueryKey,
			strconv.FormatBool(e.Matched),
			strconv.FormatFloat(e.Lat, 'f', -1, 64),
			strconv.FormatFloat(e.Lon, 'f', -1, 64),
			strconv.FormatFloat(e.Score, 'f', -1, 64),
			e.Tier,
			e.Label,
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "cache: write geo row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "cache: flush geo seed")
}

func writeThemeSeed(path string, entries []store.ThemeEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "cache: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"beneficiary", "theme", "sub_category", "confidence"}); err != nil {
		return eris.Wrap(err, "cache: write theme header")
	}
	for _, e := range entries {
		rec := []string{
			e.Beneficiary,
			e.Theme,
			e.SubCategory,
			strconv.FormatFloat(e.Confidence, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "cache: write theme row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "cache: flush theme seed")
}

func init() {
	cacheCmd.AddCommand(cacheExportCmd)
	rootCmd.AddCommand(cacheCmd)
}
