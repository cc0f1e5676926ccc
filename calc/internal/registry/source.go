package registry

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// ErrUnknownSource is returned by Open for a source type it does not know.
var ErrUnknownSource = errors.New("unknown source type")

// ErrEmptySource is returned when the input has no header row.
var ErrEmptySource = errors.New("source has no header")

// Source loads one registry extract.
type Source interface {
	Load(ctx context.Context) (*dataset.Table, error)
	Close() error
}

// SourceConfig selects and addresses a Source.
type SourceConfig struct {
	// Type is one of: csv | sqlite | postgres.
	Type string

	// Path is the CSV file, or the sqlite database file when DSN is empty.
	Path string

	// Table is the SQL table holding one row per patient.
	Table string

	// DSN is the resolved connection string for sqlite and postgres.
	DSN string
}

// Open returns the Source described by cfg. SQL sources connect eagerly.
func Open(cfg SourceConfig) (Source, error) {
	switch cfg.Type {
	case "csv", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("registry: csv: path is required")
		}
		return &CSV{Path: cfg.Path}, nil

	case "sqlite", "postgres":
		dsn := cfg.DSN
		if dsn == "" && cfg.Type == "sqlite" {
			dsn = cfg.Path
		}
		if dsn == "" {
			return nil, fmt.Errorf("registry: %s: dsn is required", cfg.Type)
		}
		if cfg.Table == "" {
			return nil, fmt.Errorf("registry: %s: table is required", cfg.Type)
		}
		dialector := sqlite.Open(dsn)
		if cfg.Type == "postgres" {
			dialector = postgres.Open(dsn)
		}
		db, err := gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("registry: %s: connect: %w", cfg.Type, err)
		}
		return NewSQL(db, cfg.Table)

	default:
		return nil, fmt.Errorf("registry: %q: %w", cfg.Type, ErrUnknownSource)
	}
}

// --- CSV ---------------------------------------------------------------------

// CSV reads a comma separated extract with a header row.
type CSV struct {
	Path string
}

// Load reads the whole file. Rows shorter or longer than the header fail.
func (c *CSV) Load(ctx context.Context) (*dataset.Table, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("registry: open csv: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", c.Path, err)
	}
	return t, nil
}

// Close is a no-op; Load closes the file it opens.
func (c *CSV) Close() error { return nil }

// ReadCSV parses an extract from r.
func ReadCSV(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, rec)
	}
	return dataset.New(header, rows)
}

// --- SQL ---------------------------------------------------------------------

// SQL reads every row of one table through gorm.
type SQL struct {
	db    *gorm.DB
	table string
}

// NewSQL wraps an open connection.
func NewSQL(db *gorm.DB, table string) (*SQL, error) {
	if table == "" {
		return nil, fmt.Errorf("registry: sql: table is required")
	}
	return &SQL{db: db, table: table}, nil
}

// Load selects the whole table. Column order follows the table definition.
func (s *SQL) Load(ctx context.Context) (*dataset.Table, error) {
	rows, err := s.db.WithContext(ctx).Table(s.table).Rows()
	if err != nil {
		return nil, fmt.Errorf("registry: query %s: %w", s.table, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("registry: column types: %w", err)
	}
	header := make([]string, len(types))
	for i, ct := range types {
		header[i] = ct.Name()
	}

	var out [][]string
	values := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("registry: scan %s: %w", s.table, err)
		}
		rec := make([]string, len(values))
		for i, v := range values {
			rec[i] = cellText(v)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", s.table, err)
	}

	t, err := dataset.New(header, out)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return t, nil
}

// Close closes the underlying connection pool.
func (s *SQL) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// cellText renders a scanned SQL value as extract text. NULL is empty.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format(dateLayout)
		}
		return x.Format(dateTimeLayout)
	case []byte:
		return string(x)
	}
	return cast.ToString(v)
}
