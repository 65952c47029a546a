package engine

// ----------------------
//   RECORD SHAPES
// ----------------------

// TaskKind distinguishes graded deadlines from the prep sessions the engine
// proposes. "task" and "study" are the wire values the frontend stores, so
// they stay as-is.
type TaskKind string

const (
	KindDeadline TaskKind = "task"  // test/exam date or due-date marker
	KindStudy    TaskKind = "study" // engine-proposed prep session
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

type Resource struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// TaskRecord.Time is a display string ("Jan 27, 4:00 PM"), not a timestamp.
// The frontend re-parses it for sorting, so the exact shape is a contract.
type TaskRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Time        string     `json:"time"`
	Duration    string     `json:"duration"`
	Type        TaskKind   `json:"type"`
	Priority    string     `json:"priority"`
	Description string     `json:"description,omitempty"`
	Resources   []Resource `json:"resources,omitempty"`
	Completed   bool       `json:"completed,omitempty"`
}

type ClassRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`    // user-facing label, e.g. "AP Calculus"
	Subject string `json:"subject"` // coarse category, e.g. "Math"
}

// ActivityRecord is a routine block: a busy commitment, or a study window
// when IsFreeSlot is set. Read-only to the engine.
type ActivityRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Time        string   `json:"time"`      // "<start> - <end>", e.g. "4:00 PM - 6:00 PM"
	Frequency   string   `json:"frequency"` // daily | weekdays | weekends | weekly
	AppliedDays []string `json:"appliedDays"`
	Type        string   `json:"type"`
	IsFreeSlot  bool     `json:"isFreeSlot"`
}

type ConversationTurn struct {
	Author string `json:"author"` // "user" | "ai"
	Text   string `json:"text"`
}

// Result is what one BuildPlan call hands back to the caller. Message is
// plain text for direct display.
type Result struct {
	Message       string           `json:"message"`
	NewTasks      []TaskRecord     `json:"newTasks"`
	NewClasses    []ClassRecord    `json:"newClasses"`
	NewActivities []ActivityRecord `json:"newActivities"`
}
