package export

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/investment"
)

// WriteGeoJSON writes the geocoded projects as a FeatureCollection for
// the map frontend. Projects without coordinates are left out.
func WriteGeoJSON(path string, projects []investment.Project) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(projects))}

	skipped := 0
	for _, p := range projects {
		if p.Lat == 0 && p.Lon == 0 {
			skipped++
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       p.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}).SetSRID(4326),
			Properties: map[string]any{
				"nom_projet":     p.NomProjet,
				"annee":          p.Annee,
				"arrondissement": p.Arrondissement,
				"montant":        p.Montant,
				"type_ap":        p.TypeAP,
				"thematique":     p.Thematique,
				"source":         p.Source,
				"geo_score":      p.GeoScore,
				"geo_source":     p.GeoTier,
				"geo_label":      p.GeoLabel,
			},
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrapf(err, "export: marshal geojson %s", path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "export: write geojson %s", path)
	}

	zap.L().Info("wrote geojson",
		zap.String("path", path),
		zap.Int("features", len(fc.Features)),
		zap.Int("without_coords", skipped))
	return nil
}

// RefreshGeoJSON rebuilds the map GeoJSON from every year artifact in dir,
// so years outside the current run keep their features.
func RefreshGeoJSON(dir, path string) error {
	years, err := ListYears(dir)
	if err != nil {
		return err
	}

	var all []investment.Project
	for _, year := range years {
		art, err := ReadYear(dir, year)
		if err != nil {
			return err
		}
		all = append(all, art.Data...)
	}
	return WriteGeoJSON(path, all)
}
