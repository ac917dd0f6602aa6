package db

import "time"

// AnalysisReport is one archived status summary. The lot state itself is
// never persisted; only the generated text and the counts it was built from.
type AnalysisReport struct {
	ID              int64
	RequestID       string
	Total           int
	Occupied        int
	Available       int
	AvailableByType []int64 // STANDARD, DISABLED, PRIORITY, EV
	Analysis        string
	Trigger         string
	GeneratedAt     time.Time
}
