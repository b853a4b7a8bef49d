// Package seed reads the initial occupancy table and loads it into the
// reservation store before the dispatcher starts.  Rows map onto the
// configured floors by position; a row's own floor name is only
// compared to log a warning.
package seed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/iliyamo/hotel-floor-reservation/internal/repository"
)

// Loader is the part of the store the seed loaders populate.
type Loader interface {
	Floors() []string
	LoadFromRows(rows []repository.SeedRow) error
}

// ReadRows parses the text seed format: one line per floor holding a
// floor name token followed by whitespace-separated occupancy digits.
// Reading stops at end of input or at the first empty line.  Token
// validation is left to the store.
func ReadRows(r io.Reader) ([]repository.SeedRow, error) {
	var rows []repository.SeedRow
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: line %d is blank", repository.ErrMalformedRow, len(rows)+1)
		}
		rows = append(rows, repository.SeedRow{Name: fields[0], Slots: fields[1:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading seed table: %w", err)
	}
	return rows, nil
}

// LoadFile reads the seed file at path into store.
func LoadFile(path string, store Loader, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return apply(store, rows, logger, path)
}

// apply loads rows and reports names that do not line up with the
// floor at the same position.
func apply(store Loader, rows []repository.SeedRow, logger *slog.Logger, source string) error {
	floors := store.Floors()
	for i, row := range rows {
		if i < len(floors) && row.Name != floors[i] {
			logger.Warn("seed row name differs from floor at its position; loading by position",
				"row", i+1,
				"row_name", row.Name,
				"floor", floors[i],
			)
		}
	}
	if err := store.LoadFromRows(rows); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	logger.Info("seed table loaded", "source", source, "rows", len(rows))
	return nil
}

// Source loads a seed table from somewhere into a store.
type Source interface {
	Load(ctx context.Context, store Loader, logger *slog.Logger) error
}

// FileSource is a Source backed by a text seed file.
type FileSource struct{ Path string }

func (s FileSource) Load(_ context.Context, store Loader, logger *slog.Logger) error {
	return LoadFile(s.Path, store, logger)
}
