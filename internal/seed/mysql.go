package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/hotel-floor-reservation/internal/repository"
)

// FloorSeedTable is the MySQL table holding seed rows:
//
//	CREATE TABLE floor_seed (
//	    position   INT         NOT NULL PRIMARY KEY,
//	    floor_name VARCHAR(16) NOT NULL,
//	    slots      VARCHAR(64) NOT NULL  -- "0 0 1 0 ..." (24 digits)
//	);
const FloorSeedTable = "floor_seed"

// ReadTableRows reads the seed rows ordered by position.  The slots
// column uses the same whitespace-separated digits as the text file.
func ReadTableRows(ctx context.Context, db *sql.DB) ([]repository.SeedRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT floor_name, slots FROM `+FloorSeedTable+` ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", FloorSeedTable, err)
	}
	defer rows.Close()

	var out []repository.SeedRow
	for rows.Next() {
		var name, slots string
		if err := rows.Scan(&name, &slots); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", FloorSeedTable, err)
		}
		out = append(out, repository.SeedRow{Name: name, Slots: strings.Fields(slots)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", FloorSeedTable, err)
	}
	return out, nil
}

// TableSource is a Source backed by the floor_seed table.
type TableSource struct{ DB *sql.DB }

func (s TableSource) Load(ctx context.Context, store Loader, logger *slog.Logger) error {
	rows, err := ReadTableRows(ctx, s.DB)
	if err != nil {
		return err
	}
	return apply(store, rows, logger, "mysql:"+FloorSeedTable)
}
