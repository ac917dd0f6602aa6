package entities

import "time"

type AnalysisStatus string

const (
	AnalysisIdle      AnalysisStatus = "idle"
	AnalysisInFlight  AnalysisStatus = "in_flight"
	AnalysisDisplayed AnalysisStatus = "displayed"
)

type AnalysisState struct {
	Status      AnalysisStatus `json:"status"`
	RequestID   string         `json:"request_id,omitempty"`
	Result      string         `json:"result,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// ReportMessageData feeds the e-mail and SMS templates of a scheduled report.
type ReportMessageData struct {
	LotName       string
	GeneratedAt   string
	Total         int
	Occupied      int
	Available     int
	OccupancyRate string
	Analysis      string
	CurrentYear   int
}

type ReportsList struct {
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Reports []AnalysisReportView `json:"reports"`
}

type AnalysisReportView struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"request_id"`
	Total       int       `json:"total"`
	Occupied    int       `json:"occupied"`
	Available   int       `json:"available"`
	Analysis    string    `json:"analysis"`
	Trigger     string    `json:"trigger"`
	GeneratedAt time.Time `json:"generated_at"`
}
