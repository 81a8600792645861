package export

import (
	"fmt"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tcossen/data-transform/internal/domain"
	"github.com/tcossen/data-transform/internal/table"
)

const maxSheetName = 31

// WriteXLSX writes each sheet to its own worksheet in xlsxPath. The first
// row of every worksheet is the sheet's headers.
func WriteXLSX(xlsxPath string, sheets []table.Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if len(sheets) == 0 {
		if err := f.SaveAs(xlsxPath); err != nil {
			return fmt.Errorf("%w: failed to save xlsx file %s: %v", domain.ErrFilesystem, xlsxPath, err)
		}
		return nil
	}

	used := make(map[string]bool)
	for i, s := range sheets {
		name := sheetName(s.Name, i, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to rename sheet to %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeRow(f, name, 1, s.Headers); err != nil {
			return err
		}
		for r, rec := range s.Records {
			values := make([]string, len(s.Headers))
			for c, h := range s.Headers {
				values[c] = rec[h]
			}
			if err := writeRow(f, name, r+2, values); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(xlsxPath); err != nil {
		return fmt.Errorf("%w: failed to save xlsx file %s: %v", domain.ErrFilesystem, xlsxPath, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d to sheet %s: %w", row, sheet, err)
	}
	return nil
}

// sheetName derives a unique worksheet name from an archive entry name.
func sheetName(entry string, idx int, used map[string]bool) string {
	base := strings.TrimSuffix(path.Base(entry), path.Ext(entry))
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = fmt.Sprintf("Sheet%d", idx+1)
	}
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}

	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		trimmed := base
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		name = trimmed + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}
