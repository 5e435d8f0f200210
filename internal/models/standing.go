package models

import "strings"

// RankedStudent is one row of the computed standings.
type RankedStudent struct {
	Student
	ClassName       string      `json:"class_name"`
	GrandTotal      float64     `json:"grand_total"`
	MaxPossible     float64     `json:"max_possible"`
	Percentage      int         `json:"percentage"`
	ExactPercentage float64     `json:"exact_percentage"`
	ActiveSessions  int         `json:"active_sessions"`
	GlobalRank      int         `json:"global_rank"`
	ClassRank       int         `json:"class_rank"`
	Progress        Progress    `json:"progress"`
	Entries         []ExamEntry `json:"exam_entries"`
}

// StandingsView is the standings payload for one subject, optionally narrowed to a class.
type StandingsView struct {
	Subject   Subject         `json:"subject"`
	Class     string          `json:"class"`
	Mode      string          `json:"mode"`
	Sessions  []string        `json:"sessions"`
	Standings []RankedStudent `json:"standings"`
}

// ShowClassColumn reports whether rows span several classes and should carry the class name.
func (v StandingsView) ShowClassColumn() bool {
	return IsAllSections(v.Class)
}

// ChartPoint is one bar of the top performers chart.
type ChartPoint struct {
	Name       string  `json:"name"`
	FullName   string  `json:"full_name"`
	Score      int     `json:"score"`
	TotalMarks float64 `json:"total_marks"`
	MaxMarks   float64 `json:"max_marks"`
}

// NewChartPoint labels the bar with the student's first name.
func NewChartPoint(s RankedStudent) ChartPoint {
	name := s.Name
	if fields := strings.Fields(s.Name); len(fields) > 0 {
		name = fields[0]
	}
	return ChartPoint{
		Name:       name,
		FullName:   s.Name,
		Score:      s.Percentage,
		TotalMarks: s.GrandTotal,
		MaxMarks:   s.MaxPossible,
	}
}

// ImportResult reports the outcome of a roster import.
type ImportResult struct {
	Class   string `json:"class"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
}
