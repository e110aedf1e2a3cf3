// Package intake reads delivery-stop manifests from CSV files and validates
// them before anything is sent to the routing service. One file holds one
// route; the route title is the file name without its extension.
package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/routeup/routeup/core/model"
)

// Canonical manifest columns. Header matching is case-insensitive and
// ignores surrounding whitespace; unknown columns are ignored.
const (
	colName         = "Name"
	colStreet       = "Address Line 1"
	colUnit         = "Address Line 2"
	colCity         = "City"
	colState        = "State"
	colZip          = "Zip"
	colPhone        = "Phone"
	colEmail        = "Email"
	colNotes        = "Notes"
	colOrderCount   = "Order Count"
	colBoxType      = "Box Type"
	colNeighborhood = "Neighborhood"
)

// requiredColumns must be present in every manifest header. The remaining
// canonical columns are optional.
var requiredColumns = []string{
	colName, colStreet, colCity, colState, colZip, colOrderCount, colBoxType,
}

// RowError describes one rejected manifest cell.
type RowError struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail"`
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Detail)
	}
	return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Field, e.Detail)
}

// ValidationError aggregates every problem found across the manifest set so
// a bad hand-off is reported in one pass instead of one error per run.
type ValidationError struct {
	Rows []RowError
}

func (e *ValidationError) Error() string {
	if len(e.Rows) == 1 {
		return "invalid manifest: " + e.Rows[0].Error()
	}
	return fmt.Sprintf("invalid manifest: %d problems, first is %s", len(e.Rows), e.Rows[0].Error())
}

// Read loads stop records from a CSV file, or from every *.csv file in a
// directory. Records come back grouped by file in file-name order, already
// validated; on any validation failure the returned error is a
// *ValidationError carrying all rejected rows.
func Read(path string) ([]model.StopRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	files := []string{path}
	if info.IsDir() {
		if files, err = manifestFiles(path); err != nil {
			return nil, err
		}
	}

	var (
		stops    []model.StopRecord
		rejected []RowError
	)
	for _, f := range files {
		recs, rows, err := readFile(f)
		if err != nil {
			return nil, err
		}
		stops = append(stops, recs...)
		rejected = append(rejected, rows...)
	}
	if len(rejected) > 0 {
		return nil, &ValidationError{Rows: rejected}
	}
	return stops, nil
}

func manifestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no csv manifests in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func readFile(path string) ([]model.StopRecord, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, []RowError{{File: path, Line: 1, Detail: "empty file"}}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	idx := headerIndex(header)
	if missing := missingColumns(idx); len(missing) > 0 {
		rows := make([]RowError, 0, len(missing))
		for _, col := range missing {
			rows = append(rows, RowError{File: path, Line: 1, Field: col, Detail: "column missing"})
		}
		return nil, rows, nil
	}

	var (
		stops []model.StopRecord
		rows  []RowError
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		if blankRow(rec) {
			continue
		}
		line, _ := r.FieldPos(0)

		stop, rowErr := buildRecord(title, rec, idx)
		if rowErr != nil {
			rowErr.File, rowErr.Line = path, line
			rows = append(rows, *rowErr)
			continue
		}
		cellErrs, err := validateStop(stop)
		if err != nil {
			return nil, nil, err
		}
		for _, ce := range cellErrs {
			ce.File, ce.Line = path, line
			rows = append(rows, ce)
		}
		if len(cellErrs) == 0 {
			stops = append(stops, stop)
		}
	}
	return stops, rows, nil
}

// headerIndex maps lowercased header names to their column position. A BOM
// on the first cell (Excel exports) is stripped.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func missingColumns(idx map[string]int) []string {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func buildRecord(title string, rec []string, idx map[string]int) (model.StopRecord, *RowError) {
	cell := func(col string) string {
		i, ok := idx[strings.ToLower(col)]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	count := 1
	if raw := cell(colOrderCount); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.StopRecord{}, &RowError{Field: colOrderCount, Detail: fmt.Sprintf("%q is not a whole number", raw)}
		}
		count = n
	}
	return model.StopRecord{
		RouteTitle:   title,
		Name:         cell(colName),
		Street:       cell(colStreet),
		Unit:         cell(colUnit),
		City:         cell(colCity),
		State:        cell(colState),
		Zip:          cell(colZip),
		Phone:        cell(colPhone),
		Email:        cell(colEmail),
		Notes:        cell(colNotes),
		OrderCount:   count,
		BoxType:      cell(colBoxType),
		Neighborhood: cell(colNeighborhood),
	}, nil
}
