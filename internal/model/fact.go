package model

import "fmt"

// FactRecord is the fact payload shown for one annotated name.
// Key is not part of the dataset entry; it is filled from the dataset key.
type FactRecord struct {
	Key           string `json:"key" yaml:"-"`
	Team          string `json:"team" yaml:"team"`
	Wins          int    `json:"wins" yaml:"wins"`
	Championships int    `json:"championships" yaml:"championships"`
	CareerSpan    string `json:"career_span" yaml:"career_span"`
}

// Lines returns the tooltip lines for the record, title first
func (f FactRecord) Lines() []string {
	return []string{
		f.Key,
		"Team: " + f.Team,
		fmt.Sprintf("Wins: %d", f.Wins),
		fmt.Sprintf("Championships: %d", f.Championships),
		"Career: " + f.CareerSpan,
	}
}
