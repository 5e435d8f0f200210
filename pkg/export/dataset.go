package export

import (
	"fmt"
	"strconv"
)

// Dataset defines tabular export content with optional banner rows.
type Dataset struct {
	SheetName string
	Title     string
	Subtitle  string
	// Accent is a #RRGGBB colour used for banner and header fills.
	Accent  string
	Headers []string
	Rows    [][]interface{}
}

// FormatCell renders a cell value the way it should appear in text formats.
func FormatCell(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return fmt.Sprint(value)
	}
}
