package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheetName = "Sheet1"
	defaultAccent    = "#064E3B"
	bannerMinColumns = 5
	headerRow        = 4
	maxSheetNameLen  = 31
)

// XLSXExporter renders datasets into a single-sheet workbook: row 1 title, row 2 subtitle,
// row 3 blank, row 4 headers, data from row 5.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces workbook bytes for the dataset.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := sanitizeSheetName(data.SheetName)
	if err := f.SetSheetName(defaultSheetName, sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	accent := data.Accent
	if accent == "" {
		accent = defaultAccent
	}

	width := len(data.Headers)
	if width < bannerMinColumns {
		width = bannerMinColumns
	}
	lastCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return nil, fmt.Errorf("resolve banner width: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 20, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{accent}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: accent},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("subtitle style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{accent}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	if err := f.SetCellStr(sheet, "A1", data.Title); err != nil {
		return nil, fmt.Errorf("write title: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle); err != nil {
		return nil, fmt.Errorf("style title: %w", err)
	}
	if err := f.SetRowHeight(sheet, 1, 40); err != nil {
		return nil, fmt.Errorf("size title: %w", err)
	}

	if err := f.MergeCell(sheet, "A2", lastCol+"2"); err != nil {
		return nil, fmt.Errorf("merge subtitle: %w", err)
	}
	if err := f.SetCellStr(sheet, "A2", data.Subtitle); err != nil {
		return nil, fmt.Errorf("write subtitle: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", subtitleStyle); err != nil {
		return nil, fmt.Errorf("style subtitle: %w", err)
	}

	headers := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		headers[i] = h
	}
	headerCell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(sheet, headerCell, &headers); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}
	headerEnd, _ := excelize.CoordinatesToCellName(len(data.Headers), headerRow)
	if err := f.SetCellStyle(sheet, headerCell, headerEnd, headerStyle); err != nil {
		return nil, fmt.Errorf("style headers: %w", err)
	}

	for i, row := range data.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadFirstColumn returns column A of every row after the header row of the first worksheet.
// Values are returned as displayed text and are not trimmed.
func ReadFirstColumn(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	values := make([]string, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, row[0])
	}
	return values, nil
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return defaultSheetName
	}
	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}
	return name
}
