package domain

// Submission is the closed set of shapes the intake pipeline accepts.
// Each variant carries only its relevant fields; handling is exhaustive
// by type switch over the four concrete types.
type Submission interface {
	isSubmission()
}

// NoteSubmission is a generic free-text note.
type NoteSubmission struct {
	Project string
	Content string
	Tags    []string
}

// ProgressSubmission is a structured project progress update.
type ProgressSubmission struct {
	Project string
	Stage   string
	Notes   string
	Content string
	Tags    []string
}

// LedgerSubmission is a structured ledger record request.
type LedgerSubmission struct {
	Title        string
	Summary      string
	Theme        string
	Lens         string
	Project      string
	ValueTags    []ValueTag
	ArtifactTags []ArtifactType
	References   []string
	Actor        string
}

// TaskSubmission is a lightweight todo request.
type TaskSubmission struct {
	Title   string
	Details string
	DueDate string
	Tags    []string
}

func (NoteSubmission) isSubmission()     {}
func (ProgressSubmission) isSubmission() {}
func (LedgerSubmission) isSubmission()   {}
func (TaskSubmission) isSubmission()     {}
