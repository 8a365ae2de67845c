package dataset

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultPressureQuery selects the pressure series recorded for one deployment in time order.
// The deployment name is bound to $1.
const DefaultPressureQuery = `SELECT pressure FROM pressure_samples WHERE deployment = $1 ORDER BY sample_time`

// LoadSQL runs query against db and collects the first column of every row as a pressure
// sample. NULL samples are skipped.
func LoadSQL(ctx context.Context, db *sql.DB, query, deployment string) ([]float64, error) {
	if query == "" {
		query = DefaultPressureQuery
	}

	rows, err := db.QueryContext(ctx, query, deployment)
	if err != nil {
		return nil, fmt.Errorf("error querying pressure for deployment %q: %w", deployment, err)
	}
	defer rows.Close()

	var pressure []float64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("error scanning pressure row: %w", err)
		}
		if v.Valid {
			pressure = append(pressure, v.Float64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(pressure) == 0 {
		return nil, fmt.Errorf("deployment %q: %w", deployment, errNoSamples)
	}
	return pressure, nil
}
