package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/paris-open-data/budget-cli/internal/investment"
)

// addYearFlags registers the --year/--all pair shared by the pipeline
// commands.
func addYearFlags(cmd *cobra.Command) {
	cmd.Flags().Int("year", 0, "budget year to process")
	cmd.Flags().Bool("all", false, "process every configured year")
}

// resolveYears turns the --year/--all flags into the list of years to
// process, ascending. known maps configured years to their source URLs.
func resolveYears(cmd *cobra.Command, known map[int]string) ([]int, error) {
	year, _ := cmd.Flags().GetInt("year")
	all, _ := cmd.Flags().GetBool("all")

	switch {
	case all && year != 0:
		return nil, eris.New("--year and --all are mutually exclusive")
	case all:
		years := make([]int, 0, len(known))
		for y := range known {
			years = append(years, y)
		}
		sort.Ints(years)
		if len(years) == 0 {
			return nil, eris.New("no years configured")
		}
		return years, nil
	case year != 0:
		if _, ok := known[year]; !ok {
			return nil, eris.Errorf("no source configured for year %d", year)
		}
		return []int{year}, nil
	default:
		return nil, eris.New("one of --year or --all is required")
	}
}

// pdfProjectsPath is where the raw annex extraction for a year lands
// before merging.
func pdfProjectsPath(dataDir string, year int) string {
	return filepath.Join(dataDir, fmt.Sprintf("investissements_pdf_%d.json", year))
}

// readPDFProjects loads a year's annex extraction. A missing file is
// not an error; the merge handles the empty case.
func readPDFProjects(dataDir string, year int) ([]investment.Project, error) {
	raw, err := os.ReadFile(pdfProjectsPath(dataDir, year))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read annex projects for %d", year)
	}

	var projects []investment.Project
	if err := json.Unmarshal(raw, &projects); err != nil {
		return nil, eris.Wrapf(err, "parse annex projects for %d", year)
	}
	return projects, nil
}

func writePDFProjects(dataDir string, year int, projects []investment.Project) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return eris.Wrap(err, "create data dir")
	}
	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "marshal annex projects for %d", year)
	}
	return eris.Wrapf(os.WriteFile(pdfProjectsPath(dataDir, year), data, 0o644),
		"write annex projects for %d", year)
}
