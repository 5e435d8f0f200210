package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ProgressKind tags the shape of a syllabus progress record.
type ProgressKind string

const (
	ProgressEmpty    ProgressKind = "empty"
	ProgressPerPaper ProgressKind = "per_paper"
	ProgressScalar   ProgressKind = "scalar"
)

// Progress is syllabus completion for one student in one subject: nothing recorded, one
// percentage per paper index, or a single percentage for the whole subject.
type Progress struct {
	kind   ProgressKind
	papers map[int]int
	value  int
}

// EmptyProgress returns a record with nothing recorded.
func EmptyProgress() Progress {
	return Progress{kind: ProgressEmpty}
}

// PerPaperProgress builds a per-paper record. An empty map yields EmptyProgress.
func PerPaperProgress(papers map[int]int) Progress {
	if len(papers) == 0 {
		return EmptyProgress()
	}
	copied := make(map[int]int, len(papers))
	for k, v := range papers {
		copied[k] = v
	}
	return Progress{kind: ProgressPerPaper, papers: copied}
}

// ScalarProgress builds a single-value record.
func ScalarProgress(value int) Progress {
	return Progress{kind: ProgressScalar, value: value}
}

// Kind reports the record shape. The zero Progress is empty.
func (p Progress) Kind() ProgressKind {
	if p.kind == "" {
		return ProgressEmpty
	}
	return p.kind
}

// Paper returns the percentage for a paper index. A scalar record answers for paper 0 only.
func (p Progress) Paper(index int) int {
	switch p.Kind() {
	case ProgressPerPaper:
		return p.papers[index]
	case ProgressScalar:
		if index == 0 {
			return p.value
		}
	}
	return 0
}

// Value returns the single percentage. A per-paper record answers with paper 0.
func (p Progress) Value() int {
	switch p.Kind() {
	case ProgressScalar:
		return p.value
	case ProgressPerPaper:
		return p.papers[0]
	}
	return 0
}

// Papers returns a copy of the per-paper values, including a scalar as paper 0.
func (p Progress) Papers() map[int]int {
	out := make(map[int]int, len(p.papers))
	switch p.Kind() {
	case ProgressPerPaper:
		for k, v := range p.papers {
			out[k] = v
		}
	case ProgressScalar:
		out[0] = p.value
	}
	return out
}

// MarshalJSON encodes per-paper records as an object keyed by paper index, scalars as a
// bare number and empty records as {}.
func (p Progress) MarshalJSON() ([]byte, error) {
	switch p.Kind() {
	case ProgressScalar:
		return json.Marshal(p.value)
	case ProgressPerPaper:
		obj := make(map[string]int, len(p.papers))
		for k, v := range p.papers {
			obj[strconv.Itoa(k)] = v
		}
		return json.Marshal(obj)
	default:
		return []byte("{}"), nil
	}
}

// UnmarshalJSON accepts every shape DecodeProgress accepts.
func (p *Progress) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeProgress(data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// DecodeProgress classifies a stored progress payload. It accepts a JSON object keyed by
// paper index, a JSON string holding such an object or number, or a bare number meaning
// paper 0. Anything else yields EmptyProgress together with the reason, never a panic.
func DecodeProgress(raw []byte) (Progress, error) {
	return decodeProgress(raw, true)
}

func decodeProgress(raw []byte, allowString bool) (Progress, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return EmptyProgress(), nil
	}

	switch raw[0] {
	case '"':
		if !allowString {
			return EmptyProgress(), fmt.Errorf("progress string nested inside string")
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return EmptyProgress(), fmt.Errorf("decode progress string: %w", err)
		}
		return decodeProgress([]byte(inner), false)
	case '{':
		return decodeProgressObject(raw)
	default:
		var number json.Number
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&number); err != nil {
			return EmptyProgress(), fmt.Errorf("decode progress value: %w", err)
		}
		if dec.More() {
			return EmptyProgress(), fmt.Errorf("decode progress value: trailing data")
		}
		value, err := roundNumber(number)
		if err != nil {
			return EmptyProgress(), err
		}
		return ScalarProgress(value), nil
	}
}

func decodeProgressObject(raw []byte) (Progress, error) {
	var obj map[string]json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return EmptyProgress(), fmt.Errorf("decode progress object: %w", err)
	}
	papers := make(map[int]int, len(obj))
	for key, number := range obj {
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 {
			return EmptyProgress(), fmt.Errorf("progress key %q is not a paper index", key)
		}
		value, err := roundNumber(number)
		if err != nil {
			return EmptyProgress(), err
		}
		papers[index] = value
	}
	return PerPaperProgress(papers), nil
}

func roundNumber(number json.Number) (int, error) {
	f, err := number.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("progress value %q is not a number", number.String())
	}
	return int(math.Round(f)), nil
}

// ProgressRow is a stored progress payload as fetched, before decoding.
type ProgressRow struct {
	StudentID string          `db:"student_id" json:"student_id"`
	Progress  json.RawMessage `db:"progress" json:"progress"`
}

// ProgressBand returns the bar colour for a completion percentage.
func ProgressBand(value int) string {
	switch {
	case value >= 80:
		return "#10b981"
	case value >= 50:
		return "#f59e0b"
	default:
		return "#ef4444"
	}
}
