// Package dataset bundles the sample tables used throughout the workbench:
// CSV extracts of the nycflights13 flight records plus a manifest declaring
// column types and the index lists applied when tables are copied into the
// embedded engine.
package dataset

import (
	"embed"
	"encoding/csv"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Halkenhaeusser/labs/internal/frame"
)

//go:embed manifest.yaml data/*.csv
var embedded embed.FS

// Column type names accepted by the manifest.
const (
	TypeInteger = "integer"
	TypeDouble  = "double"
	TypeText    = "text"
)

// ColumnSpec declares one column of a bundled table.
type ColumnSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// TableSpec declares one bundled table: its CSV file, typed columns, and the
// indexes created when it is copied into the engine.
type TableSpec struct {
	Name    string       `yaml:"name"`
	File    string       `yaml:"file"`
	Columns []ColumnSpec `yaml:"columns"`
	Indexes [][]string   `yaml:"indexes"`
}

type manifest struct {
	Tables []TableSpec `yaml:"tables"`
}

// Table is a decoded bundled table: its spec plus the materialized rows.
type Table struct {
	Spec TableSpec
	Data *frame.Frame
}

// Dataset holds the decoded bundled tables in manifest order.
type Dataset struct {
	tables map[string]*Table
	order  []string
}

// Default decodes the embedded manifest and CSV files.
func Default() (*Dataset, error) {
	raw, err := embedded.ReadFile("manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	ds := &Dataset{tables: make(map[string]*Table, len(m.Tables))}
	for _, spec := range m.Tables {
		if err := spec.validate(); err != nil {
			return nil, err
		}
		f, err := decodeCSV(spec)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", spec.Name, err)
		}
		ds.tables[spec.Name] = &Table{Spec: spec, Data: f}
		ds.order = append(ds.order, spec.Name)
	}
	return ds, nil
}

// Names returns the table names in manifest order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Table returns the named bundled table.
func (d *Dataset) Table(name string) (*Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, fmt.Errorf("dataset: no table %q", name)
	}
	return t, nil
}

func (s TableSpec) validate() error {
	if s.Name == "" || s.File == "" {
		return fmt.Errorf("dataset: table spec missing name or file")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("dataset: table %s declares no columns", s.Name)
	}
	for _, c := range s.Columns {
		switch c.Type {
		case TypeInteger, TypeDouble, TypeText:
		default:
			return fmt.Errorf("dataset: table %s column %s has unknown type %q", s.Name, c.Name, c.Type)
		}
	}
	cols := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		cols[c.Name] = true
	}
	for _, idx := range s.Indexes {
		for _, col := range idx {
			if !cols[col] {
				return fmt.Errorf("dataset: table %s indexes unknown column %q", s.Name, col)
			}
		}
	}
	return nil
}

// decodeCSV reads the table's CSV file, checks the header against the
// manifest, and converts each cell per its declared type. Empty cells become
// NULL (nil).
func decodeCSV(spec TableSpec) (*frame.Frame, error) {
	f, err := embedded.Open("data/" + spec.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", spec.File, err)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(spec.Columns) {
		return nil, fmt.Errorf("header has %d columns, manifest declares %d", len(header), len(spec.Columns))
	}
	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		if header[i] != c.Name {
			return nil, fmt.Errorf("header column %d is %q, manifest declares %q", i, header[i], c.Name)
		}
		cols[i] = c.Name
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, cell := range rec {
			v, err := decodeCell(cell, spec.Columns[j].Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, spec.Columns[j].Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return frame.New(cols, rows)
}

func decodeCell(cell, typ string) (any, error) {
	if cell == "" {
		// NULL; frame.Float64Column surfaces it as NaN.
		return nil, nil
	}
	switch typ {
	case TypeInteger:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse integer %q: %w", cell, err)
		}
		return n, nil
	case TypeDouble:
		x, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("parse double %q: %w", cell, err)
		}
		return x, nil
	default:
		return cell, nil
	}
}
