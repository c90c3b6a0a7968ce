package model

import "time"

// LogExport is the top-level JSON structure for submissions log export.
type LogExport struct {
	Source      string             `json:"source"`
	ExportedAt  time.Time          `json:"exported_at"`
	Sections    []string           `json:"sections"`
	Count       int                `json:"count"`
	Submissions []SubmissionExport `json:"submissions"`
}

// SubmissionExport holds one log row for export.
type SubmissionExport struct {
	Timestamp    string            `json:"timestamp"`
	Name         string            `json:"name"`
	RollNo       string            `json:"rollno"`
	Department   string            `json:"department"`
	ClassSection string            `json:"class_section"`
	Email        string            `json:"email"`
	Total        string            `json:"total"`
	Percentage   string            `json:"percentage"`
	Sections     map[string]string `json:"sections"`
}
