package investment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/paris-open-data/budget-cli/internal/db"
)

// DefaultWarehouseTable is the warehouse relation holding line-grained
// investment records.
const DefaultWarehouseTable = "grandes_operations"

// WarehouseSource reads line-grained investment records from the data
// warehouse. Rows are re-aggregated by project name before merging.
type WarehouseSource struct {
	pool  db.Pool
	table string
}

// NewWarehouseSource creates a WarehouseSource over an existing pool.
// An empty table falls back to DefaultWarehouseTable.
func NewWarehouseSource(pool db.Pool, table string) *WarehouseSource {
	if table == "" {
		table = DefaultWarehouseTable
	}
	return &WarehouseSource{pool: pool, table: table}
}

// Projects returns warehouse investment lines for one budget year,
// aggregated by project name with amounts summed. Arrondissement and
// theme keep the first non-empty value per project.
func (s *WarehouseSource) Projects(ctx context.Context, year int) ([]Project, error) {
	query := fmt.Sprintf(`
		SELECT nom_projet, montant, arrondissement, COALESCE(thematique, '')
		FROM %s
		WHERE annee = $1 AND montant > 0
		ORDER BY nom_projet`, pgx.Identifier{s.table}.Sanitize())

	rows, err := s.pool.Query(ctx, query, year)
	if err != nil {
		return nil, eris.Wrapf(err, "investment: query warehouse year %d", year)
	}
	defer rows.Close()

	var lines []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.NomProjet, &p.Montant, &p.Arrondissement, &p.Thematique); err != nil {
			return nil, eris.Wrap(err, "investment: scan warehouse row")
		}
		p.Annee = year
		p.Source = ProvenanceWarehouse
		lines = append(lines, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "investment: read warehouse rows")
	}

	return AggregateByName(lines), nil
}

// Years lists the budget years present in the warehouse, newest first.
func (s *WarehouseSource) Years(ctx context.Context) ([]int, error) {
	query := fmt.Sprintf(`SELECT DISTINCT annee FROM %s ORDER BY annee DESC`,
		pgx.Identifier{s.table}.Sanitize())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "investment: query warehouse years")
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, eris.Wrap(err, "investment: scan warehouse year")
		}
		years = append(years, y)
	}
	return years, rows.Err()
}
