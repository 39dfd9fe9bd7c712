package restserver

import "github.com/chrissnell/shiftline/internal/timeline"

// SubjectsResponse lists the subjects with activity.
type SubjectsResponse struct {
	Subjects []string `json:"subjects"`
}

// DatesResponse lists the operational dates of one subject.
type DatesResponse struct {
	SubjectID   string   `json:"subject_id"`
	Dates       []string `json:"dates"`
	DefaultDate string   `json:"default_date,omitempty"`
}

// FleetResponse holds one report per subject over a shared window and their
// combined summary. Diagnostics lists every row rejected while the source was
// loaded, including rows of subjects with no usable activity left.
type FleetResponse struct {
	ReportID    string               `json:"report_id"`
	Window      timeline.Window      `json:"window"`
	Reports     []timeline.Report    `json:"reports"`
	Total       timeline.Summary     `json:"total"`
	Diagnostics timeline.Diagnostics `json:"diagnostics"`
}
