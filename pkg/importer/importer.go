package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"item-catalog/internal/models"
	"item-catalog/internal/store"

	"github.com/tealeg/xlsx/v3"
	"gopkg.in/yaml.v3"
)

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string // empty uses DefaultMapping
	DryRun      bool
	MaxErrors   int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// MappingConfig maps workbook headers to item fields. Sheets are matched by
// name; the "*" entry applies to any sheet without its own entry.
type MappingConfig struct {
	Version int                    `yaml:"version"`
	Sheets  map[string]SheetConfig `yaml:"sheets"`
}

// SheetConfig lists, per item field, the header titles that feed it.
type SheetConfig struct {
	Columns map[string][]string `yaml:"columns"`
}

// DefaultMapping is used when no mapping file is configured.
const DefaultMapping = `
version: 1
sheets:
  "*":
    columns:
      name: [Name, Item, Title]
      description: [Description, Details, Notes]
`

const maxSamplesPerSheet = 10

var ErrTooManyErrors = errors.New("too many errors")

// LoadMapping reads a YAML mapping file, or DefaultMapping when path is empty.
func LoadMapping(path string) (*MappingConfig, error) {
	data := []byte(DefaultMapping)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read mapping %s: %w", path, err)
		}
		data = b
	}
	return ParseMapping(data)
}

// ParseMapping decodes and checks a YAML mapping.
func ParseMapping(data []byte) (*MappingConfig, error) {
	var m MappingConfig
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if len(m.Sheets) == 0 {
		return nil, errors.New("mapping defines no sheets")
	}
	for name, sc := range m.Sheets {
		if len(sc.Columns["name"]) == 0 {
			return nil, fmt.Errorf("sheet %q: mapping has no name column", name)
		}
		for field := range sc.Columns {
			if field != "name" && field != "description" {
				return nil, fmt.Errorf("sheet %q: unknown item field %q", name, field)
			}
		}
	}
	return &m, nil
}

func (m *MappingConfig) sheetConfig(name string) (SheetConfig, bool) {
	if sc, ok := m.Sheets[name]; ok {
		return sc, true
	}
	sc, ok := m.Sheets["*"]
	return sc, ok
}

// ImportExcel upserts the rows of an .xlsx workbook as items, matching
// existing items by name. When st supports transactions and this is not a
// dry run, the whole import rolls back if the error budget is exceeded.
func ImportExcel(ctx context.Context, st store.ItemStore, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{DryRun: opts.DryRun, Sheets: []SheetSummary{}}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 50
	}

	mapping, err := LoadMapping(opts.MappingPath)
	if err != nil {
		return summary, fmt.Errorf("failed to load mapping config: %w", err)
	}

	// xlsx needs random access, so buffer the upload.
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	run := func(target store.ItemStore) error {
		summary = ImportSummary{DryRun: opts.DryRun, Sheets: []SheetSummary{}}
		return importWorkbook(ctx, target, wb, mapping, opts, &summary)
	}

	if tx, ok := st.(store.Transactor); ok && !opts.DryRun {
		err = tx.WithTx(ctx, run)
	} else {
		err = run(st)
	}
	return summary, err
}

func importWorkbook(ctx context.Context, st store.ItemStore, wb *xlsx.File, mapping *MappingConfig, opts ImportOptions, summary *ImportSummary) error {
	for _, sheet := range wb.Sheets {
		sc, ok := mapping.sheetConfig(sheet.Name)
		if !ok {
			continue
		}

		sheetSummary := processSheet(ctx, st, sheet, sc, opts, summary.Errors)
		summary.Sheets = append(summary.Sheets, sheetSummary)
		summary.Inserted += sheetSummary.Inserted
		summary.Updated += sheetSummary.Updated
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors

		if summary.Errors > opts.MaxErrors {
			return fmt.Errorf("%w (%d), stopping import", ErrTooManyErrors, summary.Errors)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// processSheet imports one sheet. priorErrors counts errors from earlier
// sheets so the budget applies to the whole workbook.
func processSheet(ctx context.Context, st store.ItemStore, sheet *xlsx.Sheet, sc SheetConfig, opts ImportOptions, priorErrors int) SheetSummary {
	summary := SheetSummary{Name: sheet.Name}
	addErr := func(row int, msg string) {
		summary.Errors++
		if len(summary.Samples) < maxSamplesPerSheet {
			summary.Samples = append(summary.Samples, RowError{Sheet: sheet.Name, Row: row, Message: msg})
		}
	}

	if sheet.MaxRow == 0 {
		return summary
	}
	headerRow, err := sheet.Row(0)
	if err != nil {
		addErr(1, "failed to read header row: "+err.Error())
		return summary
	}

	columns := headerColumns(headerRow, sheet.MaxCol, sc)
	if !hasField(columns, "name") {
		addErr(1, "no name column found in header row")
		return summary
	}

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		if priorErrors+summary.Errors > opts.MaxErrors {
			break
		}
		row, err := sheet.Row(rowIdx)
		if err != nil {
			addErr(rowIdx+1, "failed to read row: "+err.Error())
			continue
		}

		values := map[string]string{}
		for col, field := range columns {
			if v := strings.TrimSpace(row.GetCell(col).String()); v != "" {
				values[field] = v
			}
		}
		if len(values) == 0 {
			summary.Skipped++
			continue
		}

		form := models.NewItemForm(values)
		if !form.IsValid() {
			addErr(rowIdx+1, formatFormErrors(form.Errors))
			continue
		}

		inserted, err := upsert(ctx, st, form, opts.DryRun)
		if err != nil {
			addErr(rowIdx+1, err.Error())
			continue
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
	}
	return summary
}

// headerColumns maps column index to item field using sc's header aliases,
// compared case-insensitively.
func headerColumns(header *xlsx.Row, maxCol int, sc SheetConfig) map[int]string {
	aliases := map[string]string{}
	for field, titles := range sc.Columns {
		for _, t := range titles {
			aliases[strings.ToUpper(strings.TrimSpace(t))] = field
		}
	}

	columns := map[int]string{}
	seen := map[string]bool{}
	for col := 0; col < maxCol; col++ {
		title := strings.ToUpper(strings.TrimSpace(header.GetCell(col).String()))
		field, ok := aliases[title]
		if !ok || seen[field] {
			continue
		}
		seen[field] = true
		columns[col] = field
	}
	return columns
}

func hasField(columns map[int]string, field string) bool {
	for _, f := range columns {
		if f == field {
			return true
		}
	}
	return false
}

func upsert(ctx context.Context, st store.ItemStore, form *models.ItemForm, dryRun bool) (bool, error) {
	existing, err := st.GetByName(ctx, form.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if !dryRun {
			var it models.Item
			form.Apply(&it)
			if err := st.Create(ctx, &it); err != nil {
				return false, err
			}
		}
		return true, nil
	case errors.Is(err, store.ErrMultipleItems):
		return false, fmt.Errorf("name %q matches more than one item", form.Name)
	case err != nil:
		return false, err
	}

	if !dryRun {
		form.Apply(&existing)
		if err := st.Save(ctx, &existing); err != nil {
			return false, err
		}
	}
	return false, nil
}

func formatFormErrors(errs map[string]string) string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f + ": " + errs[f])
	}
	return b.String()
}
