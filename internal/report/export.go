package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/starford/tabtidy/internal/apperr"
)

// Format is a report serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// Writer persists exported bytes. storage.Provider satisfies it.
type Writer interface {
	Write(path string, content []byte) error
}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("report %s: %w", path, apperr.ErrUnsupportedFormat)
	}
}

// Marshal serializes the full report.
func (r *Report) Marshal(f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal report json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal report yaml: %w", err)
		}
		return data, nil
	case FormatXLSX:
		return r.marshalXLSX()
	default:
		return nil, fmt.Errorf("report format %q: %w", f, apperr.ErrUnsupportedFormat)
	}
}

// Export writes the report to path in the format its extension names.
func (r *Report) Export(w Writer, path string) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	data, err := r.Marshal(f)
	if err != nil {
		return err
	}
	if err := w.Write(path, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

const (
	sheetDeletions = "Deletions"
	sheetSummary   = "Summary"
)

func (r *Report) marshalXLSX() ([]byte, error) {
	x := excelize.NewFile()
	defer func() { _ = x.Close() }()

	if err := x.SetSheetName("Sheet1", sheetDeletions); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	if err := x.SetSheetRow(sheetDeletions, "A1", &[]any{"Title", "URL", "Reason", "Kind"}); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}
	for i, d := range r.Deletions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("xlsx: %w", err)
		}
		if err := x.SetSheetRow(sheetDeletions, cell, &[]any{d.Title, d.URL, d.Reason, string(d.Kind)}); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	if _, err := x.NewSheet(sheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	rows := [][]any{
		{"Run ID", r.RunID},
		{"Started", r.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", r.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Total links", r.Stats.TotalLinks},
		{"Valid links", r.Stats.ValidLinks},
		{"Removed links", r.Stats.RemovedLinks},
		{"Folders removed", r.Stats.FoldersRemoved},
	}
	for _, kc := range r.Breakdown() {
		rows = append(rows, []any{"Removed: " + string(kc.Kind), kc.Count})
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := x.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return nil, fmt.Errorf("xlsx summary: %w", err)
		}
	}

	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
