package hermes

const (
	SubjectAnalysisRequest = "propgic.analysis.request"
	SubjectStats           = "propgic.stats"

	StreamName   = "PROPGIC_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectAnalysisCreated(id string) string   { return "propgic.analysis." + id + ".created" }
func SubjectAnalysisStarted(id string) string   { return "propgic.analysis." + id + ".started" }
func SubjectAnalysisCompleted(id string) string { return "propgic.analysis." + id + ".completed" }
func SubjectAnalysisFailed(id string) string    { return "propgic.analysis." + id + ".failed" }
func SubjectAnalysisDeleted(id string) string   { return "propgic.analysis." + id + ".deleted" }
