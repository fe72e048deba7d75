package hermes

import "time"

// AnalysisRequestEvent asks for a new analysis. Exactly one of Address or
// URL is expected.
type AnalysisRequestEvent struct {
	Address      string `json:"address,omitempty"`
	URL          string `json:"url,omitempty"`
	AnalyserType string `json:"analyser_type,omitempty"`
}

type AnalysisCreatedEvent struct {
	AnalysisID      string `json:"analysis_id"`
	PropertyAddress string `json:"property_address"`
	AnalyserType    string `json:"analyser_type"`
	SourceType      string `json:"source_type"`
}

type AnalysisStartedEvent struct {
	AnalysisID   string `json:"analysis_id"`
	AnalyserType string `json:"analyser_type"`
}

type AnalysisCompletedEvent struct {
	AnalysisID     string   `json:"analysis_id"`
	AnalyserType   string   `json:"analyser_type"`
	Score          string   `json:"score"`
	Coverage       string   `json:"coverage"`
	Tier           string   `json:"tier"`
	Recommendation string   `json:"recommendation"`
	Sources        []string `json:"sources,omitempty"`
}

type AnalysisFailedEvent struct {
	AnalysisID string `json:"analysis_id"`
	Error      string `json:"error"`
}

type StatsEvent struct {
	Pending    int       `json:"pending"`
	InProgress int       `json:"in_progress"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	AvgScore   string    `json:"avg_score,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
