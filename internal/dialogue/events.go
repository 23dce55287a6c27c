package dialogue

// Subjects for session lifecycle events.
const (
	SubjectSessionStarted  = "agriform.session.started"
	SubjectAnswerRejected  = "agriform.answer.rejected"
	SubjectRecordCompleted = "agriform.record.completed"
	SubjectInsightFailed   = "agriform.insight.failed"
)

type SessionStartedEvent struct {
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
	Timestamp string `json:"timestamp"`
}

type AnswerRejectedEvent struct {
	SessionID string `json:"session_id"`
	State     State  `json:"state"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

type RecordCompletedEvent struct {
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
	Record    Record `json:"record"`
	Timestamp string `json:"timestamp"`
}

type InsightFailedEvent struct {
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}
