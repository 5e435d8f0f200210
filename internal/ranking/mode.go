package ranking

import (
	"strings"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Mode selects the ranking key and the progress shape of a deployment.
type Mode string

const (
	// ModePercentage ranks by unrounded percentage and tracks progress per paper.
	ModePercentage Mode = "percentage"
	// ModeTotal ranks by raw grand total and tracks a single progress value.
	ModeTotal Mode = "total"
)

// ParseMode maps configuration input to a Mode, defaulting to ModePercentage.
func ParseMode(raw string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(raw))) == ModeTotal {
		return ModeTotal
	}
	return ModePercentage
}

// Key is the value a student is ordered by under this mode.
func (m Mode) Key(student models.RankedStudent) float64 {
	if m == ModeTotal {
		return student.GrandTotal
	}
	return student.ExactPercentage
}

// Strategy returns the progress strategy paired with this mode.
func (m Mode) Strategy() ProgressStrategy {
	if m == ModeTotal {
		return ScalarProgress{}
	}
	return PerPaperProgress{}
}

func (m Mode) String() string {
	return string(m)
}
