package ranking

import (
	"errors"
	"fmt"

	"github.com/noah-isme/gradebook-api/internal/models"
)

var (
	ErrPaperRequired      = errors.New("paper index is required")
	ErrPaperOutOfRange    = errors.New("paper index out of range")
	ErrProgressOutOfRange = errors.New("progress must be between 0 and 100")
)

// ProgressUpdate is a single progress write. Paper is ignored by the scalar strategy.
type ProgressUpdate struct {
	Paper *int
	Value int
}

// ProgressStrategy decides how progress is written and how it is laid out in exports.
type ProgressStrategy interface {
	Apply(subject models.Subject, current models.Progress, update ProgressUpdate) (models.Progress, error)
	Columns(subject models.Subject) []string
	Cells(subject models.Subject, progress models.Progress) []interface{}
}

// PerPaperProgress keeps one percentage per paper.
type PerPaperProgress struct{}

func (PerPaperProgress) Apply(subject models.Subject, current models.Progress, update ProgressUpdate) (models.Progress, error) {
	if err := validateProgressValue(update.Value); err != nil {
		return current, err
	}
	if update.Paper == nil {
		return current, ErrPaperRequired
	}
	index := *update.Paper
	if index < 0 || index >= len(subject.Papers) {
		return current, fmt.Errorf("%w: %d", ErrPaperOutOfRange, index)
	}
	papers := current.Papers()
	papers[index] = update.Value
	return models.PerPaperProgress(papers), nil
}

func (PerPaperProgress) Columns(subject models.Subject) []string {
	columns := make([]string, len(subject.Papers))
	for i, paper := range subject.Papers {
		columns[i] = paper + " Progress %"
	}
	return columns
}

func (PerPaperProgress) Cells(subject models.Subject, progress models.Progress) []interface{} {
	cells := make([]interface{}, len(subject.Papers))
	for i := range subject.Papers {
		cells[i] = progress.Paper(i)
	}
	return cells
}

// ScalarProgress keeps one percentage for the whole subject.
type ScalarProgress struct{}

func (ScalarProgress) Apply(_ models.Subject, current models.Progress, update ProgressUpdate) (models.Progress, error) {
	if err := validateProgressValue(update.Value); err != nil {
		return current, err
	}
	return models.ScalarProgress(update.Value), nil
}

func (ScalarProgress) Columns(models.Subject) []string {
	return []string{"Progress %"}
}

func (ScalarProgress) Cells(_ models.Subject, progress models.Progress) []interface{} {
	return []interface{}{progress.Value()}
}

func validateProgressValue(value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%w: %d", ErrProgressOutOfRange, value)
	}
	return nil
}
