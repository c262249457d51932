package budget

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var seedColumns = []string{
	"annee", "section", "sens_flux",
	"chapitre_code", "chapitre_libelle",
	"nature_code", "nature_libelle",
	"fonction_code", "montant",
	"source_page", "source_pdf",
}

// WriteSeedCSV writes extracted lines as a dbt-style seed file with a
// fixed column order and a header row.
func WriteSeedCSV(path string, lines []Line) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "budget: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(seedColumns); err != nil {
		return eris.Wrap(err, "budget: write header")
	}
	for _, l := range lines {
		record := []string{
			strconv.Itoa(l.Annee),
			l.Section,
			l.SensFlux,
			l.ChapitreCode,
			l.ChapitreLibelle,
			l.NatureCode,
			l.NatureLibelle,
			l.FonctionCode,
			strconv.FormatFloat(l.Montant, 'f', 2, 64),
			strconv.Itoa(l.SourcePage),
			l.SourcePDF,
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "budget: write record")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "budget: flush csv")
	}
	zap.L().Info("budget: wrote seed", zap.String("path", path), zap.Int("lines", len(lines)))
	return nil
}

// ReadSeedCSV loads a seed file written by WriteSeedCSV. The header row
// must match the fixed column order.
func ReadSeedCSV(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "budget: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(seedColumns)

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "budget: read header of %s", path)
	}
	for i, col := range seedColumns {
		if header[i] != col {
			return nil, eris.Errorf("budget: %s: column %d is %q, want %q", path, i, header[i], col)
		}
	}

	var lines []Line
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "budget: read %s", path)
		}
		annee, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, eris.Wrapf(err, "budget: %s: bad annee %q", path, rec[0])
		}
		montant, err := strconv.ParseFloat(rec[8], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "budget: %s: bad montant %q", path, rec[8])
		}
		page, err := strconv.Atoi(rec[9])
		if err != nil {
			return nil, eris.Wrapf(err, "budget: %s: bad source_page %q", path, rec[9])
		}
		lines = append(lines, Line{
			Annee:           annee,
			Section:         rec[1],
			SensFlux:        rec[2],
			ChapitreCode:    rec[3],
			ChapitreLibelle: rec[4],
			NatureCode:      rec[5],
			NatureLibelle:   rec[6],
			FonctionCode:    rec[7],
			Montant:         montant,
			SourcePage:      page,
			SourcePDF:       rec[10],
		})
	}
	return lines, nil
}
