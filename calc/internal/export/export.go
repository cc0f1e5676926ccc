package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/strokestats/strokestats/pkg/types"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatProm Format = "prom"
)

// ErrUnknownFormat is returned for a format name ParseFormat does not know.
var ErrUnknownFormat = errors.New("unknown output format")

// Fixed columns around the indicator block.
const (
	ColSiteID   = "Site ID"
	ColSiteName = "Site Name"
	ColAward    = "Proposed Award"
	ColAwardOld = "Proposed Award (old calculation)"
)

// ParseFormat reads a format name. "" is csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatProm:
		return f, nil
	default:
		return "", fmt.Errorf("export: %q: %w", s, ErrUnknownFormat)
	}
}

// Write encodes r to w.
func Write(w io.Writer, r *types.Report, f Format) error {
	switch f {
	case FormatCSV, "":
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatProm:
		return WriteProm(w, r)
	default:
		return fmt.Errorf("export: %q: %w", f, ErrUnknownFormat)
	}
}

// WriteFile encodes r to path. The file is replaced atomically.
func WriteFile(path string, r *types.Report, f Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("export: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, r, f); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: rename: %w", err)
	}
	return nil
}

// --- csv ---------------------------------------------------------------------

// WriteCSV writes the per-site table.
func WriteCSV(w io.Writer, r *types.Report) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(r.Columns)+4)
	header = append(header, ColSiteID, ColSiteName)
	header = append(header, r.Columns...)
	header = append(header, ColAward, ColAwardOld)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: csv header: %w", err)
	}

	rec := make([]string, len(header))
	for _, s := range r.Sites {
		if len(s.Values) != len(r.Columns) {
			return fmt.Errorf("export: site %s has %d values for %d columns", s.SiteID, len(s.Values), len(r.Columns))
		}
		rec[0], rec[1] = s.SiteID, s.SiteName
		for i, v := range s.Values {
			rec[2+i] = FormatValue(v)
		}
		rec[len(rec)-2], rec[len(rec)-1] = s.Award, s.AwardOld
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("export: csv site %s: %w", s.SiteID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: csv: %w", err)
	}
	return nil
}

// FormatValue renders an indicator value in its shortest form. Whole
// numbers have no decimal point.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// --- json --------------------------------------------------------------------

// WriteJSON writes the wire form of r.
func WriteJSON(w io.Writer, r *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}
